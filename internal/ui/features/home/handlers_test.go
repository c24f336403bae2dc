package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapschema/internal/ui/features"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	return NewHandlers(fixture.Store, fixture.Notifier), fixture
}

// =============================================================================
// HomePage Tests - Full HTML page responses with server-rendered content
// =============================================================================

func TestHomePage(t *testing.T) {
	tests := []struct {
		name     string
		seed     bool
		wantBody []string
	}{
		{
			name: "empty store shows import hint",
			wantBody: []string{
				"<!doctype html>",
				"<title>Datasets - LeapSchema</title>",
				`data-init="@get('/updates')"`,
				`id="dataset-list"`,
				"leapschema import",
			},
		},
		{
			name: "lists datasets with their latest version",
			seed: true,
			wantBody: []string{
				`href="/datasets/urn:li:dataset:%28urn:li:dataPlatform:hive%2Cdb.users%2CPROD%29/schema"`,
				"urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)",
				"<td>hive</td>",
				"<td>v3</td>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)
			if tt.seed {
				fixture.SeedUsers(t)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			h.HomePage(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want, "response should contain %q", want)
			}
		})
	}
}

// =============================================================================
// HomePageUpdates Tests - SSE endpoint for live updates only
// =============================================================================

func TestHomePageUpdates_SendsUpdateOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	// A new dataset arrives while the page is open.
	time.Sleep(50 * time.Millisecond)
	fixture.SaveVersions(t, "urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)",
		[]core.SchemaField{{Path: "order_id"}})
	fixture.Notifier.Broadcast("urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)")

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1, "should have at least 1 SSE event from broadcast")
	assert.Contains(t, body, "db.orders")
}

func TestHomePageUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.HomePageUpdates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"), "should have no SSE events without broadcast")
}
