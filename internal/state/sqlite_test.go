package state

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

const testURN = "urn:li:dataset:(urn:li:dataPlatform:duckdb,main.users,PROD)"

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSnapshot(raw string, fields ...core.SchemaField) *core.Snapshot {
	return &core.Snapshot{DatasetURN: testURN, Platform: "duckdb", Fields: fields, RawForm: raw}
}

func sf(path, desc string) core.SchemaField {
	return core.SchemaField{
		Path:        path,
		Type:        core.FieldType{Kind: core.FieldTypeString, NativeType: "VARCHAR"},
		Description: desc,
	}
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Close())
}

func TestSQLiteStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"datasets", "schema_versions", "schema_fields", "editable_fields"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if assert.NoError(t, err, "table %s", table) {
			_ = rows.Close()
		}
	}

	v, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	latest, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, latest, v, "a fresh store is fully migrated")
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	_, err := store.LatestVersion(context.Background(), testURN)
	assert.Error(t, err)
	assert.Error(t, store.InitSchema())
}

func TestSaveSnapshot_AssignsVersions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	v1, created, err := store.SaveSnapshot(ctx, testSnapshot(`{"v":1}`, sf("id", "")))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, v1.Version)
	assert.NotEmpty(t, v1.Hash)

	v2, created, err := store.SaveSnapshot(ctx, testSnapshot(`{"v":2}`, sf("id", ""), sf("name", "full name")))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, v2.Version)

	latest, err := store.LatestVersion(ctx, testURN)
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestSaveSnapshot_SkipsUnchangedContent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, _, err := store.SaveSnapshot(ctx, testSnapshot("raw", sf("id", "")))
	require.NoError(t, err)
	again, created, err := store.SaveSnapshot(ctx, testSnapshot("raw", sf("id", "")))
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, 1, again.Version)
	assert.Len(t, again.Fields, 1)
}

func TestSaveSnapshot_RejectsEmptyPath(t *testing.T) {
	store := setupTestStore(t)
	_, _, err := store.SaveSnapshot(context.Background(), testSnapshot("", sf("", "")))
	assert.Error(t, err)

	_, err = store.LatestVersion(context.Background(), testURN)
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)
}

func TestFetchVersions(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tagged := sf("email", "contact")
	tagged.Tags = []core.TagRef{{URN: "urn:li:tag:PII", Name: "PII"}}
	tagged.Nullable = true

	_, _, err := store.SaveSnapshot(ctx, testSnapshot("one", sf("id", "old")))
	require.NoError(t, err)
	_, _, err = store.SaveSnapshot(ctx, testSnapshot("two", sf("id", "pk"), tagged))
	require.NoError(t, err)

	newer, older, err := store.FetchVersions(ctx, testURN, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "two", newer.RawForm)
	assert.Equal(t, "duckdb", newer.Platform)
	require.Len(t, newer.Fields, 2)
	assert.Equal(t, tagged, newer.Fields[1])
	assert.Equal(t, "old", older.Fields[0].Description)
	assert.Nil(t, newer.Fields[0].Tags)

	newer, older, err = store.FetchVersions(ctx, testURN, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, newer.Version)
	assert.Nil(t, older)

	_, _, err = store.FetchVersions(ctx, testURN, 9, 8)
	assert.ErrorIs(t, err, core.ErrVersionNotFound)
}

func TestListVersionsAndDatasets(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, _, err := store.SaveSnapshot(ctx, testSnapshot("a", sf("id", "")))
	require.NoError(t, err)
	_, _, err = store.SaveSnapshot(ctx, testSnapshot("b", sf("id", ""), sf("x", "")))
	require.NoError(t, err)

	versions, err := store.ListVersions(ctx, testURN)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, 1, versions[0].FieldCount)
	assert.Equal(t, 2, versions[1].FieldCount)

	datasets, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.DatasetInfo{{URN: testURN, Platform: "duckdb", LatestVersion: 2}}, datasets)

	_, err = store.ListVersions(ctx, "urn:li:dataset:missing")
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)
}

func TestRelativeToAbsolute(t *testing.T) {
	tests := []struct {
		latest, ref, want int
		wantErr           bool
	}{
		{5, 3, 3, false},
		{5, 0, 5, false},
		{5, -1, 4, false},
		{5, -4, 1, false},
		{5, -5, 0, true},
		{5, 6, 0, true},
	}
	for _, tt := range tests {
		got, err := RelativeToAbsolute(tt.latest, tt.ref)
		if tt.wantErr {
			assert.ErrorIs(t, err, core.ErrVersionNotFound, "ref %d", tt.ref)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ref %d", tt.ref)
	}
}

func TestPersistEdits(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	_, _, err := store.SaveSnapshot(ctx, testSnapshot("", sf("id", "")))
	require.NoError(t, err)

	entries := []core.EditOverlayEntry{
		{FieldPath: "id", Description: core.StringPtr("primary key")},
		{FieldPath: "gone", Tags: []core.TagRef{}},
		{FieldPath: "name", Tags: []core.TagRef{{URN: "urn:li:tag:PII"}}},
	}
	echo, err := store.PersistEdits(ctx, testURN, entries)
	require.NoError(t, err)
	assert.Equal(t, entries, echo)

	echo, err = store.PersistEdits(ctx, testURN, entries[:1])
	require.NoError(t, err)
	assert.Len(t, echo, 1)

	loaded, err := store.LoadEdits(ctx, testURN)
	require.NoError(t, err)
	assert.Equal(t, echo, loaded)
}

func TestPersistEdits_UnknownDataset(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.PersistEdits(context.Background(), "urn:li:dataset:none", nil)
	assert.ErrorIs(t, err, core.ErrDatasetNotFound)
}

func TestLoadEdits_Empty(t *testing.T) {
	store := setupTestStore(t)
	edits, err := store.LoadEdits(context.Background(), testURN)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestPersistEdits_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := &SQLiteStore{db: db}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("DELETE FROM editable_fields").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectPrepare("INSERT INTO editable_fields").
		ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err = store.PersistEdits(context.Background(), testURN, []core.EditOverlayEntry{
		{FieldPath: "id", Description: core.StringPtr("x")},
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestVersion_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	store := &SQLiteStore{db: db}

	mock.ExpectQuery("SELECT MAX").WillReturnError(assert.AnError)

	_, err = store.LatestVersion(context.Background(), testURN)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotHash(t *testing.T) {
	a, err := SnapshotHash(testSnapshot("x", sf("id", "")))
	require.NoError(t, err)
	b, err := SnapshotHash(&core.Snapshot{DatasetURN: "other", Version: 9, Fields: []core.SchemaField{sf("id", "")}, RawForm: "x"})
	require.NoError(t, err)
	c, err := SnapshotHash(testSnapshot("y", sf("id", "")))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
