package home

import (
	"context"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapschema/internal/ui/features/common"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	datasets DatasetLister
	notifier *notifier.Notifier
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(datasets DatasetLister, notify *notifier.Notifier) *Handlers {
	return &Handlers{
		datasets: datasets,
		notifier: notify,
	}
}

// HomePage renders the dataset index with full content.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.ListDatasets(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := common.Page(common.PageData{Title: "Datasets", UpdatesURL: "/updates"}, DatasetList(datasets))
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the index page.
// It does not send initial state; that is rendered by HomePage.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendDatasetList(ctx, sse); err != nil {
				_ = sse.ConsoleError(err)
				// keep trying on next update
			}
		}
	}
}

func (h *Handlers) sendDatasetList(ctx context.Context, sse *datastar.ServerSentEventGenerator) error {
	datasets, err := h.datasets.ListDatasets(ctx)
	if err != nil {
		return err
	}
	return sse.PatchElementTempl(DatasetList(datasets))
}
