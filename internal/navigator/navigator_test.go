package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/testutil"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// fakeFetcher serves snapshots by version. Requests for versions listed in
// gates block until the gate is closed.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []core.VersionPair
	gates map[int]chan struct{}
	fail  map[int]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{gates: map[int]chan struct{}{}, fail: map[int]error{}}
}

func (f *fakeFetcher) gate(v int) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[v] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeFetcher) FetchVersions(ctx context.Context, urn string, newer, older int) (*core.Snapshot, *core.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, core.VersionPair{Newer: newer, Older: older})
	gate := f.gates[newer]
	err := f.fail[newer]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, nil, err
	}
	snap := func(v int) *core.Snapshot {
		if v < 1 {
			return nil
		}
		return &core.Snapshot{DatasetURN: urn, Version: v}
	}
	return snap(newer), snap(older), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func await(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o, ok := <-ch:
		require.True(t, ok, "outcome channel closed without a value")
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func setup(t *testing.T, latest int) (*Controller, *fakeFetcher) {
	t.Helper()
	f := newFakeFetcher()
	c := New(f, "urn:li:dataset:test", Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, c.Load(context.Background(), latest))
	return c, f
}

func TestLoad(t *testing.T) {
	c, f := setup(t, 5)
	st := c.State()

	assert.Equal(t, PhaseLive, st.Phase)
	assert.Equal(t, 5, st.Latest)
	assert.Equal(t, 5, st.Selected)
	assert.Equal(t, core.VersionPair{Newer: 5, Older: 4}, st.Displayed)
	assert.Equal(t, 5, st.Newer.Version)
	assert.Equal(t, 4, st.Older.Version)
	assert.True(t, st.Editable())
	assert.True(t, st.Pairwise())
	assert.Equal(t, 1, f.callCount())
}

func TestLoad_FirstVersionHasNoPrior(t *testing.T) {
	c, _ := setup(t, 1)
	st := c.State()
	assert.Nil(t, st.Older)
	assert.Equal(t, 0, st.Displayed.Older)
}

func TestSelect_HistoricalFetchesPair(t *testing.T) {
	c, f := setup(t, 5)
	c.OpenHistory()
	assert.False(t, c.State().Editable())

	ch, err := c.Select(context.Background(), 3)
	require.NoError(t, err)
	o := await(t, ch)

	assert.True(t, o.Applied)
	st := c.State()
	assert.Equal(t, PhaseHistory, st.Phase)
	assert.Equal(t, core.VersionPair{Newer: 3, Older: 2}, st.Displayed)
	assert.Equal(t, 3, st.Newer.Version)
	assert.Equal(t, StatusLoaded, st.Status)
	assert.False(t, st.Pairwise())
	assert.Equal(t, 2, f.callCount())
}

func TestSelect_LatestFromHistoryDoesNotFetch(t *testing.T) {
	c, f := setup(t, 5)
	ch, err := c.Select(context.Background(), 2)
	require.NoError(t, err)
	await(t, ch)
	calls := f.callCount()

	ch, err = c.Select(context.Background(), 5)
	require.NoError(t, err)
	o := await(t, ch)

	assert.True(t, o.Applied)
	assert.Equal(t, calls, f.callCount())
	st := c.State()
	assert.Equal(t, PhaseLive, st.Phase)
	assert.Equal(t, core.VersionPair{Newer: 5, Older: 4}, st.Displayed)
	assert.True(t, st.HistoryEnabled)
}

func TestSelect_StaleResponseDiscarded(t *testing.T) {
	c, f := setup(t, 5)
	slow := f.gate(2)

	first, err := c.Select(context.Background(), 2)
	require.NoError(t, err)
	second, err := c.Select(context.Background(), 3)
	require.NoError(t, err)

	o2 := await(t, second)
	assert.True(t, o2.Applied)

	close(slow)
	o1 := await(t, first)
	assert.False(t, o1.Applied)
	assert.ErrorIs(t, o1.Err, ErrStaleResponse)

	st := c.State()
	assert.Equal(t, core.VersionPair{Newer: 3, Older: 2}, st.Displayed)
	assert.Equal(t, 3, st.Newer.Version)
}

func TestSelect_StaleAfterBack(t *testing.T) {
	c, f := setup(t, 5)
	slow := f.gate(2)

	ch, err := c.Select(context.Background(), 2)
	require.NoError(t, err)
	c.Back()
	close(slow)

	o := await(t, ch)
	assert.ErrorIs(t, o.Err, ErrStaleResponse)

	st := c.State()
	assert.Equal(t, PhaseLive, st.Phase)
	assert.False(t, st.HistoryEnabled)
	assert.Equal(t, core.VersionPair{Newer: 5, Older: 4}, st.Displayed)
}

func TestSelect_FailureKeepsDisplayedPair(t *testing.T) {
	c, f := setup(t, 5)
	boom := errors.New("transport down")
	f.fail[2] = boom

	ch, err := c.Select(context.Background(), 2)
	require.NoError(t, err)
	o := await(t, ch)

	assert.False(t, o.Applied)
	assert.ErrorIs(t, o.Err, boom)
	var fe *FetchError
	require.ErrorAs(t, o.Err, &fe)
	assert.Equal(t, core.VersionPair{Newer: 2, Older: 1}, fe.Pair)

	st := c.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, core.VersionPair{Newer: 5, Older: 4}, st.Displayed)
	assert.Equal(t, 5, st.Newer.Version)
}

func TestSelect_Timeout(t *testing.T) {
	f := newFakeFetcher()
	c := New(f, "urn", Options{FetchTimeout: 20 * time.Millisecond})
	require.NoError(t, c.Load(context.Background(), 3))
	f.gate(1)

	ch, err := c.Select(context.Background(), 1)
	require.NoError(t, err)
	o := await(t, ch)
	assert.ErrorIs(t, o.Err, context.DeadlineExceeded)
}

func TestSelect_OutOfRange(t *testing.T) {
	c, _ := setup(t, 3)
	for _, v := range []int{0, -1, 4} {
		_, err := c.Select(context.Background(), v)
		assert.ErrorIs(t, err, ErrVersionOutOfRange, "version %d", v)
	}

	empty := New(newFakeFetcher(), "urn", Options{})
	_, err := empty.Select(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSelect_SurvivesCanceledRequestContext(t *testing.T) {
	c, _ := setup(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := c.Select(ctx, 2)
	require.NoError(t, err)
	cancel()

	o := await(t, ch)
	assert.True(t, o.Applied)
}

func TestModeAndOnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []Mode
	c := New(newFakeFetcher(), "urn", Options{OnChange: func(s State) {
		mu.Lock()
		seen = append(seen, s.Mode)
		mu.Unlock()
	}})

	assert.Equal(t, ModeRaw, c.ToggleMode())
	assert.Equal(t, ModeTabular, c.ToggleMode())
	require.NoError(t, c.SetMode(ModeRaw))
	assert.Error(t, c.SetMode("pie"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Mode{ModeRaw, ModeTabular, ModeRaw}, seen)
}

func TestRawAvailable(t *testing.T) {
	st := State{Newer: &core.Snapshot{RawForm: "{}"}}
	assert.True(t, st.RawAvailable())
	assert.False(t, State{}.RawAvailable())
}
