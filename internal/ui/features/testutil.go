// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/internal/testutil"
	"github.com/leapstack-labs/leapschema/internal/ui/notifier"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// UsersURN is the dataset seeded by SeedUsers.
const UsersURN = "urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)"

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store        *state.SQLiteStore
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	Logger       *slog.Logger
}

// SetupTestFixture creates an in-memory store, a notifier and a session store.
func SetupTestFixture(t *testing.T) *TestFixture {
	t.Helper()

	store := state.NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestFixture{
		Store:        store,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		Logger:       testutil.NewTestLogger(t),
	}
}

// SaveVersions stores one snapshot of urn per field list, oldest first.
func (f *TestFixture) SaveVersions(t *testing.T, urn string, versions ...[]core.SchemaField) {
	t.Helper()
	for _, fields := range versions {
		_, _, err := f.Store.SaveSnapshot(context.Background(), &core.Snapshot{
			DatasetURN: urn,
			Platform:   "hive",
			RawForm:    rawForm(fields),
			Fields:     fields,
		})
		require.NoError(t, err)
	}
}

// SeedUsers stores three versions of the users dataset.
func (f *TestFixture) SeedUsers(t *testing.T) {
	t.Helper()
	f.SaveVersions(t, UsersURN,
		[]core.SchemaField{{Path: "id", Description: "old"}, {Path: "email"}},
		[]core.SchemaField{{Path: "id", Description: "pk"}, {Path: "name"}},
		[]core.SchemaField{{Path: "id", Description: "pk"}, {Path: "name"}, {Path: "zip"}},
	)
}

func rawForm(fields []core.SchemaField) string {
	raw := `{"fields":[`
	for i, f := range fields {
		if i > 0 {
			raw += ","
		}
		raw += `"` + f.Path + `"`
	}
	return raw + "]}"
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// WithCookies copies the cookies set on a response onto a new request.
func WithCookies(r *http.Request, resp *http.Response) *http.Request {
	for _, c := range resp.Cookies() {
		r.AddCookie(c)
	}
	return r
}
