package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/cli/testutil"
	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

func newBrowseSession(t *testing.T) (*browseSession, *testutil.TestRenderer) {
	t.Helper()
	ctx := context.Background()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })

	for _, fields := range [][]core.SchemaField{
		{{Path: "id", Description: "old"}, {Path: "email"}},
		{{Path: "id", Description: "pk"}, {Path: "name"}},
		{{Path: "id", Description: "pk"}, {Path: "name"}, {Path: "zip"}},
	} {
		_, _, err := store.SaveSnapshot(ctx, &core.Snapshot{DatasetURN: testURN, Platform: "hive", Fields: fields})
		require.NoError(t, err)
	}

	tr := testutil.NewTestRendererMarkdown()
	cmdCtx := &CommandContext{
		Cfg:      getConfig(),
		Store:    store,
		Renderer: tr.Renderer,
	}
	view, err := cmdCtx.OpenView(ctx, testURN)
	require.NoError(t, err)

	return &browseSession{view: view, r: tr.Renderer, w: tr.Out}, tr
}

func TestBrowseSession_Navigation(t *testing.T) {
	s, out := newBrowseSession(t)
	ctx := context.Background()
	nav := s.view.Navigator()

	quit, err := s.handle(ctx, "version 2")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, navigator.PhaseHistory, nav.State().Phase)
	assert.Contains(t, out.Output(), "Comparing version 2 to version 1")
	assert.Equal(t, "v1..v2> ", browsePrompt(nav.State()))

	out.Reset()
	_, err = s.handle(ctx, "back")
	require.NoError(t, err)
	assert.False(t, nav.State().HistoryEnabled)
	assert.Equal(t, "live(v3)> ", browsePrompt(nav.State()))

	_, err = s.handle(ctx, "history")
	require.NoError(t, err)
	assert.Contains(t, out.Output(), "1 column was added")
	testutil.AssertValidMarkdown(t, out.Output())
	testutil.AssertNoANSI(t, out.Output())

	_, err = s.handle(ctx, "version x")
	require.Error(t, err)

	_, err = s.handle(ctx, "version 7")
	require.Error(t, err)

	_, err = s.handle(ctx, "raw")
	require.Error(t, err, "snapshots without a raw form cannot switch to raw")

	_, err = s.handle(ctx, "frobnicate")
	require.Error(t, err)

	quit, err = s.handle(ctx, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestBrowseSession_Edits(t *testing.T) {
	s, out := newBrowseSession(t)
	ctx := context.Background()

	_, err := s.handle(ctx, "describe   zip   The postal code ")
	require.NoError(t, err)
	_, err = s.handle(ctx, "tags zip pii")
	require.NoError(t, err)

	edits := s.view.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "zip", edits[0].FieldPath)
	require.NotNil(t, edits[0].Description)
	assert.Equal(t, "The postal code", *edits[0].Description)
	assert.Equal(t, []core.TagRef{{URN: "urn:li:tag:pii"}}, edits[0].Tags)

	_, err = s.handle(ctx, "version 2")
	require.NoError(t, err)
	_, err = s.handle(ctx, "describe id nope")
	require.Error(t, err, "history is read-only")

	out.Reset()
	_, err = s.handle(ctx, "help")
	require.NoError(t, err)
	assert.Contains(t, out.Output(), "version <n>")
}
