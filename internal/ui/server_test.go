package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/internal/testutil"
	"github.com/leapstack-labs/leapschema/internal/ui/features/common"
)

const usersURN = "urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)"

const usersV1 = `dataset: urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)
platform: hive
fields:
  - path: id
    type: number
  - path: email
    type: string
`

const usersV2 = `dataset: urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)
platform: hive
fields:
  - path: id
    type: number
  - path: name
    type: string
`

func newTestServer(t *testing.T) (*Server, *state.SQLiteStore, string) {
	t.Helper()
	srv, store, dir, _ := newRecordingServer(t)
	return srv, store, dir
}

func newRecordingServer(t *testing.T) (*Server, *state.SQLiteStore, string, *testutil.LogRecorder) {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	logger, logs := testutil.NewRecordingLogger(t)
	srv := NewServer(Config{
		Store:         store,
		Port:          0,
		Watch:         true,
		WatchDir:      dir,
		SessionSecret: "test-secret-key-32-bytes-long!!",
		Logger:        logger,
	})
	return srv, store, dir, logs
}

func TestHandler_Routes(t *testing.T) {
	srv, _, dir := newTestServer(t)

	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersV1), 0o600))
	srv.importFile(context.Background(), path)

	handler, err := srv.Handler()
	require.NoError(t, err)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "db.users"},
		{"/static/app.css", http.StatusOK, ".status-added"},
		{common.DatasetPath(usersURN), http.StatusOK, `id="schema-view"`},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestImportFile(t *testing.T) {
	srv, store, dir, logs := newRecordingServer(t)
	ctx := context.Background()

	updates := srv.Notifier().Subscribe(usersURN)
	defer srv.Notifier().Unsubscribe(updates)

	path := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersV1), 0o600))
	srv.importFile(ctx, path)

	latest, err := store.LatestVersion(ctx, usersURN)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)

	select {
	case <-updates:
	case <-time.After(100 * time.Millisecond):
		t.Error("import should notify the dataset topic")
	}

	// Re-importing identical content stores nothing and stays quiet.
	srv.importFile(ctx, path)
	latest, err = store.LatestVersion(ctx, usersURN)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
	assert.True(t, logs.Contains("imported snapshot", "version=1"))
	assert.True(t, logs.Contains("snapshot unchanged"))
	select {
	case <-updates:
		t.Error("unchanged snapshot should not notify")
	case <-time.After(50 * time.Millisecond):
	}

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fields: [\n"), 0o600))
	srv.importFile(ctx, bad)
	latest, err = store.LatestVersion(ctx, usersURN)
	require.NoError(t, err)
	assert.Equal(t, 1, latest)
	assert.True(t, logs.Contains("skipping snapshot file", "bad.yaml"))
}

func TestWatchFiles(t *testing.T) {
	srv, store, dir := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.watchFiles(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "users_v1.yaml"), []byte(usersV1), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	assert.Eventually(t, func() bool {
		latest, err := store.LatestVersion(context.Background(), usersURN)
		return err == nil && latest == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "users_v2.yaml"), []byte(usersV2), 0o600))

	assert.Eventually(t, func() bool {
		latest, err := store.LatestVersion(context.Background(), usersURN)
		return err == nil && latest == 2
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
