// Package navigator tracks which pair of schema versions a view is showing
// and fetches historical pairs on demand.
//
// Every transition that changes the target pair bumps a sequence token.
// A fetch applies its result only if its token is still current when it
// resolves; responses for superseded selections are discarded.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Navigation errors.
var (
	ErrVersionOutOfRange = errors.New("version out of range")
	ErrStaleResponse     = errors.New("response superseded by a newer selection")
	ErrNotLoaded         = errors.New("no schema loaded")
)

// FetchError wraps a failed fetch for a version pair.
type FetchError struct {
	Pair core.VersionPair
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch versions %d/%d: %v", e.Pair.Newer, e.Pair.Older, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Mode selects the tabular or raw presentation.
type Mode string

// View modes.
const (
	ModeTabular Mode = "tabular"
	ModeRaw     Mode = "raw"
)

// Phase is the navigation state.
type Phase string

// Navigation phases.
const (
	PhaseLive    Phase = "live"
	PhaseHistory Phase = "history"
)

// FetchStatus reports the state of the most recent fetch.
type FetchStatus string

// Fetch statuses.
const (
	StatusIdle    FetchStatus = "idle"
	StatusLoading FetchStatus = "loading"
	StatusLoaded  FetchStatus = "loaded"
	StatusFailed  FetchStatus = "failed"
)

// State is a copy of the controller's comparison state.
type State struct {
	Mode           Mode
	Phase          Phase
	HistoryEnabled bool
	Selected       int
	Latest         int
	Displayed      core.VersionPair
	Newer          *core.Snapshot
	Older          *core.Snapshot
	Status         FetchStatus
	Err            error
}

// Pairwise reports whether rows should be shown without classification.
func (s State) Pairwise() bool {
	return !s.HistoryEnabled
}

// Editable reports whether field edits are allowed in this state.
func (s State) Editable() bool {
	return !s.HistoryEnabled
}

// RawAvailable reports whether the displayed schema has a raw form.
func (s State) RawAvailable() bool {
	return s.Newer.HasRawForm()
}

// Outcome is delivered once per Select call.
type Outcome struct {
	Pair    core.VersionPair
	Applied bool
	Err     error
}

// Options configures a Controller.
type Options struct {
	// FetchTimeout bounds each historical fetch. Zero means no timeout.
	FetchTimeout time.Duration
	Logger       *slog.Logger
	// OnChange is called after every applied state change, outside the lock.
	OnChange func(State)
}

// Controller is the version navigation state machine for one dataset view.
type Controller struct {
	fetcher core.SnapshotFetcher
	urn     string
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	seq     uint64
	liveSeq uint64
	state   State
	live    [2]*core.Snapshot
}

// New creates a controller for urn.
func New(fetcher core.SnapshotFetcher, urn string, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		fetcher: fetcher,
		urn:     urn,
		opts:    opts,
		logger:  logger.With("urn", urn),
		state: State{
			Mode:   ModeTabular,
			Phase:  PhaseLive,
			Status: StatusIdle,
		},
	}
}

// URN returns the dataset the controller navigates.
func (c *Controller) URN() string {
	return c.urn
}

// Load fetches the live pair (latest, latest-1) synchronously. It is called
// when a view opens and whenever a new version is stored. While browsing
// history the displayed pair is kept; only the live pair and Latest change.
func (c *Controller) Load(ctx context.Context, latest int) error {
	if latest < 1 {
		return fmt.Errorf("%w: %s", core.ErrDatasetNotFound, c.urn)
	}

	c.mu.Lock()
	c.liveSeq++
	token := c.liveSeq
	c.mu.Unlock()

	pair := core.PairFor(latest)
	newer, older, err := c.fetch(ctx, pair)

	c.mu.Lock()
	if token != c.liveSeq {
		c.mu.Unlock()
		return ErrStaleResponse
	}
	if err != nil {
		if c.state.Phase == PhaseLive {
			c.state.Status = StatusFailed
			c.state.Err = err
		}
		st := c.state
		c.mu.Unlock()
		c.notify(st)
		return err
	}

	c.live = [2]*core.Snapshot{newer, older}
	c.state.Latest = latest
	if c.state.Phase == PhaseLive {
		c.showLive()
	}
	st := c.state
	c.mu.Unlock()

	c.notify(st)
	return nil
}

// OpenHistory enables version browsing. The live pair stays displayed.
func (c *Controller) OpenHistory() {
	c.mu.Lock()
	c.state.HistoryEnabled = true
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

// Select targets version v. Selecting the latest version re-displays the
// live pair without fetching. Any other version fetches (v, v-1) in the
// background; the returned channel receives exactly one Outcome.
func (c *Controller) Select(ctx context.Context, v int) (<-chan Outcome, error) {
	out := make(chan Outcome, 1)

	c.mu.Lock()
	if c.state.Latest < 1 {
		c.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if v < 1 || v > c.state.Latest {
		latest := c.state.Latest
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrVersionOutOfRange, v, latest)
	}

	c.seq++
	token := c.seq
	c.state.HistoryEnabled = true
	c.state.Selected = v
	pair := core.PairFor(v)

	if v == c.state.Latest {
		c.state.Phase = PhaseLive
		c.showLive()
		st := c.state
		c.mu.Unlock()

		c.logger.Debug("selected latest version, showing live pair", "version", v)
		c.notify(st)
		out <- Outcome{Pair: pair, Applied: true}
		close(out)
		return out, nil
	}

	c.state.Phase = PhaseHistory
	c.state.Status = StatusLoading
	c.state.Err = nil
	st := c.state
	c.mu.Unlock()
	c.notify(st)

	c.logger.Debug("fetching version pair", "newer", pair.Newer, "older", pair.Older)

	// The fetch outlives request-scoped contexts; the timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(out)
		newer, older, err := c.fetch(fetchCtx, pair)
		out <- c.resolve(token, pair, newer, older, err)
	}()
	return out, nil
}

func (c *Controller) resolve(token uint64, pair core.VersionPair, newer, older *core.Snapshot, err error) Outcome {
	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding stale response", "newer", pair.Newer, "older", pair.Older)
		return Outcome{Pair: pair, Err: ErrStaleResponse}
	}

	if err != nil {
		c.state.Status = StatusFailed
		c.state.Err = err
		st := c.state
		c.mu.Unlock()

		c.logger.Warn("fetch failed", "newer", pair.Newer, "older", pair.Older, "error", err)
		c.notify(st)
		return Outcome{Pair: pair, Err: err}
	}

	c.state.Displayed = pair
	c.state.Newer = newer
	c.state.Older = older
	c.state.Status = StatusLoaded
	c.state.Err = nil
	st := c.state
	c.mu.Unlock()

	c.notify(st)
	return Outcome{Pair: pair, Applied: true}
}

// Back leaves history browsing and re-displays the live pair.
func (c *Controller) Back() {
	c.mu.Lock()
	c.seq++
	c.state.HistoryEnabled = false
	c.state.Phase = PhaseLive
	c.showLive()
	st := c.state
	c.mu.Unlock()
	c.notify(st)
}

// SetMode switches between tabular and raw presentation.
func (c *Controller) SetMode(m Mode) error {
	if m != ModeTabular && m != ModeRaw {
		return fmt.Errorf("unknown view mode %q", m)
	}
	c.mu.Lock()
	c.state.Mode = m
	st := c.state
	c.mu.Unlock()
	c.notify(st)
	return nil
}

// ToggleMode flips between tabular and raw presentation.
func (c *Controller) ToggleMode() Mode {
	c.mu.Lock()
	if c.state.Mode == ModeRaw {
		c.state.Mode = ModeTabular
	} else {
		c.state.Mode = ModeRaw
	}
	st := c.state
	c.mu.Unlock()
	c.notify(st)
	return st.Mode
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// showLive displays the live pair. Callers hold c.mu.
func (c *Controller) showLive() {
	c.state.Selected = c.state.Latest
	c.state.Displayed = core.PairFor(c.state.Latest)
	c.state.Newer = c.live[0]
	c.state.Older = c.live[1]
	c.state.Status = StatusLoaded
	c.state.Err = nil
}

func (c *Controller) fetch(ctx context.Context, pair core.VersionPair) (*core.Snapshot, *core.Snapshot, error) {
	if c.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.FetchTimeout)
		defer cancel()
	}
	newer, older, err := c.fetcher.FetchVersions(ctx, c.urn, pair.Newer, pair.Older)
	if err != nil {
		return nil, nil, &FetchError{Pair: pair, Err: err}
	}
	return newer, older, nil
}

func (c *Controller) notify(st State) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(st)
	}
}
