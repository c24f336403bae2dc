package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/internal/ui/features/common"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

const (
	sessionName  = "leapschema"
	sessionIDKey = "sid"
)

// VersionLister lists the stored versions of a dataset.
type VersionLister interface {
	ListVersions(ctx context.Context, urn string) ([]core.VersionInfo, error)
}

// Handlers provides HTTP handlers for the schema feature.
type Handlers struct {
	versions     VersionLister
	views        *Registry
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(versions VersionLister, views *Registry, sessionStore sessions.Store, notify *notifier.Notifier, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		versions:     versions,
		views:        views,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
	}
}

// urnParam returns the unescaped dataset URN from the route.
func urnParam(r *http.Request) string {
	p := chi.URLParam(r, "urn")
	if u, err := url.PathUnescape(p); err == nil {
		return u
	}
	return p
}

// sessionID returns the browser session id, issuing one if needed.
// It must run before the response body is written.
func (h *Handlers) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := h.sessionStore.Get(r, sessionName)
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return id, nil
}

// view resolves the session's view of the routed dataset.
func (h *Handlers) view(w http.ResponseWriter, r *http.Request) (string, *schemaview.View, error) {
	sid, err := h.sessionID(w, r)
	if err != nil {
		return "", nil, err
	}
	v, err := h.views.Get(r.Context(), sid, urnParam(r))
	if err != nil {
		return sid, nil, err
	}
	return sid, v, nil
}

func (h *Handlers) viewData(ctx context.Context, v *schemaview.View, msg string) ViewData {
	data := ViewData{
		BasePath: common.DatasetPath(v.URN()),
		Rendered: v.Render(),
		Error:    msg,
	}
	versions, err := h.versions.ListVersions(ctx, v.URN())
	if err != nil {
		h.logger.Warn("list versions failed", "urn", v.URN(), "error", err)
	}
	data.Versions = versions
	return data
}

func (h *Handlers) patchView(ctx context.Context, sse *datastar.ServerSentEventGenerator, v *schemaview.View, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if perr := sse.PatchElementTempl(SchemaView(h.viewData(ctx, v, msg))); perr != nil {
		h.logger.Debug("patch schema view failed", "error", perr)
	}
}

// SchemaPage renders the schema comparison page for a dataset.
func (h *Handlers) SchemaPage(w http.ResponseWriter, r *http.Request) {
	urn := urnParam(r)
	_, v, err := h.view(w, r)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrDatasetNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	page := common.Page(common.PageData{
		Title:      urn,
		UpdatesURL: common.DatasetPath(urn) + "/updates",
	}, Page(h.viewData(r.Context(), v, "")))

	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SchemaUpdates is the long-lived SSE endpoint for a schema page. It pushes
// the view whenever the session's view or the dataset changes.
func (h *Handlers) SchemaUpdates(w http.ResponseWriter, r *http.Request) {
	sid, v, err := h.view(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	updates := h.notifier.Subscribe(ViewTopic(sid, v.URN()), v.URN())
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			h.patchView(ctx, sse, v, nil)
		}
	}
}

// SelectVersion moves the view to the requested version and waits for it.
func (h *Handlers) SelectVersion(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals VersionSignals
	sigErr := datastar.ReadSignals(r, &signals)

	_, v, err := h.view(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.PatchElementTempl(common.ErrorBanner(err.Error()))
		return
	}
	if sigErr != nil {
		h.patchView(r.Context(), sse, v, fmt.Errorf("failed to read signals: %w", sigErr))
		return
	}

	h.patchView(r.Context(), sse, v, awaitSelect(r.Context(), v, signals.Version))
}

func awaitSelect(ctx context.Context, v *schemaview.View, version int) error {
	ch, err := v.Navigator().Select(ctx, version)
	if err != nil {
		return err
	}
	select {
	case out := <-ch:
		return out.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OpenHistory enables version browsing.
func (h *Handlers) OpenHistory(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(v *schemaview.View) error {
		v.Navigator().OpenHistory()
		return nil
	})
}

// Back returns to the live pair.
func (h *Handlers) Back(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(v *schemaview.View) error {
		v.Navigator().Back()
		return nil
	})
}

// ToggleMode flips between the table and the raw view.
func (h *Handlers) ToggleMode(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, func(v *schemaview.View) error {
		v.Navigator().ToggleMode()
		return nil
	})
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request, fn func(*schemaview.View) error) {
	_, v, err := h.view(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.PatchElementTempl(common.ErrorBanner(err.Error()))
		return
	}
	h.patchView(r.Context(), sse, v, fn(v))
}

// UpdateDescription records a description edit.
func (h *Handlers) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ctx context.Context, v *schemaview.View, row *core.FieldDiffRow, s EditSignals) error {
		return v.OnUpdateDescription(ctx, s.Description, row)
	})
}

// UpdateTags records a tag edit.
func (h *Handlers) UpdateTags(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, func(ctx context.Context, v *schemaview.View, row *core.FieldDiffRow, s EditSignals) error {
		update := core.ConvertTagsForUpdate(core.ParseTags([]string{s.Tags}))
		return v.OnUpdateTags(ctx, update, row)
	})
}

type editFunc func(context.Context, *schemaview.View, *core.FieldDiffRow, EditSignals) error

func (h *Handlers) edit(w http.ResponseWriter, r *http.Request, apply editFunc) {
	var signals EditSignals
	sigErr := datastar.ReadSignals(r, &signals)

	_, v, err := h.view(w, r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.PatchElementTempl(common.ErrorBanner(err.Error()))
		return
	}
	if sigErr != nil {
		h.patchView(r.Context(), sse, v, fmt.Errorf("failed to read signals: %w", sigErr))
		return
	}

	field := strings.TrimSpace(signals.Field)
	if field == "" {
		h.patchView(r.Context(), sse, v, errors.New("choose a field to edit"))
		return
	}

	row := v.Row(field)
	if row == nil {
		row = &core.FieldDiffRow{Field: core.SchemaField{Path: field}, Key: field}
	}

	ctx := r.Context()
	err = apply(ctx, v, row, signals)
	if err == nil {
		if rerr := h.views.ReloadEdits(ctx, v.URN(), v); rerr != nil {
			h.logger.Warn("reload edits in other sessions failed", "urn", v.URN(), "error", rerr)
		}
	}
	h.patchView(ctx, sse, v, err)
}
