// Package schemaview binds the navigation controller, the field classifier,
// the raw differ, and the overlay store into one dataset schema view.
//
// A View is owned by a single viewer. Edits are persisted through the
// backend on every change and the echoed overlay replaces the local one.
package schemaview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leapstack-labs/leapschema/internal/navigator"
	"github.com/leapstack-labs/leapschema/pkg/core"
	"github.com/leapstack-labs/leapschema/pkg/overlay"
	"github.com/leapstack-labs/leapschema/pkg/rawdiff"
	"github.com/leapstack-labs/leapschema/pkg/schemadiff"
)

// ErrNotEditable is returned for edits while browsing history.
var ErrNotEditable = errors.New("schema is read-only while browsing history")

// PersistError reports a failed overlay persist.
type PersistError struct {
	URN        string
	Err        error
	RolledBack bool
}

func (e *PersistError) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("persist edits for %s (local edit reverted): %v", e.URN, e.Err)
	}
	return fmt.Sprintf("persist edits for %s: %v", e.URN, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Backend is the data source a view reads from and persists edits to.
type Backend interface {
	core.SnapshotFetcher
	core.EditPersister
	LatestVersion(ctx context.Context, urn string) (int, error)
	LoadEdits(ctx context.Context, urn string) ([]core.EditOverlayEntry, error)
}

// Config configures a View.
type Config struct {
	MergePolicy       overlay.MergePolicy
	RollbackOnFailure bool
	FetchTimeout      time.Duration
	Logger            *slog.Logger
	// OnChange is called after navigation or overlay changes.
	OnChange func()
}

// View is one dataset's schema comparison view.
type View struct {
	urn     string
	backend Backend
	cfg     Config
	logger  *slog.Logger
	nav     *navigator.Controller
	policy  overlay.MergePolicy

	mu    sync.Mutex
	edits *overlay.Store
}

// New creates a view for urn. Call Open before rendering.
func New(backend Backend, urn string, cfg Config) *View {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	v := &View{
		urn:     urn,
		backend: backend,
		cfg:     cfg,
		logger:  logger.With("urn", urn),
		edits:   overlay.New(cfg.MergePolicy),
	}
	v.policy = v.edits.Policy()
	v.nav = navigator.New(backend, urn, navigator.Options{
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
		OnChange:     func(navigator.State) { v.changed() },
	})
	return v
}

// URN returns the dataset the view shows.
func (v *View) URN() string {
	return v.urn
}

// Navigator returns the view's navigation controller.
func (v *View) Navigator() *navigator.Controller {
	return v.nav
}

// Open loads the live pair and the persisted overlay.
func (v *View) Open(ctx context.Context) error {
	if err := v.Refresh(ctx); err != nil {
		return err
	}

	entries, err := v.backend.LoadEdits(ctx, v.urn)
	if err != nil {
		return fmt.Errorf("load edits: %w", err)
	}
	v.mu.Lock()
	v.edits.FromExternalState(entries)
	v.mu.Unlock()

	v.logger.Debug("opened schema view", "edits", len(entries))
	return nil
}

// Refresh reloads the live pair, picking up newly stored versions.
func (v *View) Refresh(ctx context.Context) error {
	latest, err := v.backend.LatestVersion(ctx, v.urn)
	if err != nil {
		return fmt.Errorf("latest version: %w", err)
	}
	return v.nav.Load(ctx, latest)
}

// Rendered is everything the presentation layer needs for one frame.
type Rendered struct {
	URN          string
	State        navigator.State
	Heading      string
	Rows         []core.FieldDiffRow
	Summary      core.DiffSummary
	SummaryLines []string
	Raw          rawdiff.Result
	Editable     bool
	RawAvailable bool
}

// Render classifies the displayed pair and layers the overlay onto it.
func (v *View) Render() Rendered {
	st := v.nav.State()
	res := schemadiff.Classify(st.Newer.FieldList(), st.Older.FieldList(), st.Pairwise())

	rows := res.Rows
	if st.Phase == navigator.PhaseLive {
		v.mu.Lock()
		rows = v.edits.Apply(rows)
		v.mu.Unlock()
	}

	var newerRaw, olderRaw string
	if st.Newer != nil {
		newerRaw = st.Newer.RawForm
	}
	if st.Older != nil {
		olderRaw = st.Older.RawForm
	}

	return Rendered{
		URN:          v.urn,
		State:        st,
		Heading:      schemadiff.Heading(st.Displayed, st.Pairwise()),
		Rows:         rows,
		Summary:      res.Summary,
		SummaryLines: schemadiff.Lines(res.Summary),
		Raw:          rawdiff.View(newerRaw, olderRaw, st.HistoryEnabled && st.Older != nil),
		Editable:     st.Editable(),
		RawAvailable: st.RawAvailable(),
	}
}

// Row returns the rendered row for a field path, or nil if none is shown.
func (v *View) Row(path string) *core.FieldDiffRow {
	for _, r := range v.Render().Rows {
		if r.Field.Path == path || r.Key == path {
			row := r
			return &row
		}
	}
	return nil
}

// Edits returns a copy of the current overlay.
func (v *View) Edits() []core.EditOverlayEntry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.edits.ToUpdatePayload()
}

// OnUpdateDescription records a description edit for the row and persists
// the overlay. A nil row is a no-op. HTML input is converted to markdown.
func (v *View) OnUpdateDescription(ctx context.Context, text string, row *core.FieldDiffRow) error {
	if row == nil {
		return nil
	}
	desc, err := NormalizeDescription(text)
	if err != nil {
		return err
	}

	patch := core.FieldPatch{Description: &desc}
	if v.policy == overlay.ReplaceEntry {
		patch.Tags = cloneTags(row.EffectiveTags())
	}
	return v.update(ctx, row.Field.Path, patch)
}

// OnUpdateTags records a tag edit for the row and persists the overlay.
// A nil row is a no-op.
func (v *View) OnUpdateTags(ctx context.Context, update core.TagsUpdate, row *core.FieldDiffRow) error {
	if row == nil {
		return nil
	}

	patch := core.FieldPatch{Tags: update.TagRefs()}
	if v.policy == overlay.ReplaceEntry {
		desc := row.EffectiveDescription()
		patch.Description = &desc
	}
	return v.update(ctx, row.Field.Path, patch)
}

func (v *View) update(ctx context.Context, path string, patch core.FieldPatch) error {
	if !v.nav.State().Editable() {
		return ErrNotEditable
	}

	v.mu.Lock()
	backup := v.edits.Clone()
	if err := v.edits.Upsert(path, patch); err != nil {
		v.mu.Unlock()
		return err
	}
	payload := v.edits.ToUpdatePayload()
	v.mu.Unlock()

	echo, err := v.backend.PersistEdits(ctx, v.urn, payload)

	v.mu.Lock()
	if err != nil {
		if v.cfg.RollbackOnFailure {
			v.edits = backup
		}
		v.mu.Unlock()
		v.logger.Warn("persist edits failed", "field", path, "rolled_back", v.cfg.RollbackOnFailure, "error", err)
		v.changed()
		return &PersistError{URN: v.urn, Err: err, RolledBack: v.cfg.RollbackOnFailure}
	}
	v.edits.FromExternalState(echo)
	v.mu.Unlock()

	v.logger.Info("persisted field edit", "field", path, "entries", len(echo))
	v.changed()
	return nil
}

func (v *View) changed() {
	if v.cfg.OnChange != nil {
		v.cfg.OnChange()
	}
}

// NormalizeDescription trims text and converts HTML to markdown.
func NormalizeDescription(text string) (string, error) {
	text = strings.TrimSpace(text)
	if !looksLikeHTML(text) {
		return text, nil
	}
	md, err := htmltomarkdown.ConvertString(text)
	if err != nil {
		return "", fmt.Errorf("convert description: %w", err)
	}
	return strings.TrimSpace(md), nil
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

func cloneTags(tags []core.TagRef) []core.TagRef {
	if tags == nil {
		return []core.TagRef{}
	}
	return append(make([]core.TagRef, 0, len(tags)), tags...)
}
