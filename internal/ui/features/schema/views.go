// Package schema provides the schema comparison page: version navigation,
// the raw view and field edits for one dataset.
package schema

import (
	"context"
	"errors"
	"sync"

	"github.com/leapstack-labs/leapschema/internal/schemaview"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
)

// ViewTopic is the notifier topic of one session's view of a dataset.
func ViewTopic(session, urn string) string {
	return session + "|" + urn
}

type viewKey struct {
	session string
	urn     string
}

// Registry holds one schema view per browser session and dataset, so each
// session navigates independently.
type Registry struct {
	backend schemaview.Backend
	cfg     schemaview.Config
	notify  *notifier.Notifier

	mu    sync.Mutex
	views map[viewKey]*schemaview.View
}

// NewRegistry creates a view registry. cfg.OnChange is replaced per view.
func NewRegistry(backend schemaview.Backend, cfg schemaview.Config, notify *notifier.Notifier) *Registry {
	return &Registry{
		backend: backend,
		cfg:     cfg,
		notify:  notify,
		views:   make(map[viewKey]*schemaview.View),
	}
}

// Get returns the session's view of urn, opening it on first use.
func (r *Registry) Get(ctx context.Context, session, urn string) (*schemaview.View, error) {
	key := viewKey{session: session, urn: urn}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[key]; ok {
		return v, nil
	}

	cfg := r.cfg
	topic := ViewTopic(session, urn)
	cfg.OnChange = func() { r.notify.Broadcast(topic) }

	v := schemaview.New(r.backend, urn, cfg)
	if err := v.Open(ctx); err != nil {
		return nil, err
	}
	r.views[key] = v
	return v, nil
}

// Len returns the number of open views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) viewsOf(urn string) map[string]*schemaview.View {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]*schemaview.View)
	for k, v := range r.views {
		if k.urn == urn {
			out[k.session] = v
		}
	}
	return out
}

// RefreshDataset reloads the live pair of every open view of urn after a
// new version was stored.
func (r *Registry) RefreshDataset(ctx context.Context, urn string) error {
	var errs []error
	for _, v := range r.viewsOf(urn) {
		if err := v.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReloadEdits re-reads the persisted overlay into every open view of urn
// except skip, so edits made in one session show up in the others.
func (r *Registry) ReloadEdits(ctx context.Context, urn string, skip *schemaview.View) error {
	var errs []error
	for session, v := range r.viewsOf(urn) {
		if v == skip {
			continue
		}
		if err := v.Open(ctx); err != nil {
			errs = append(errs, err)
			continue
		}
		r.notify.Broadcast(ViewTopic(session, urn))
	}
	return errors.Join(errs...)
}
