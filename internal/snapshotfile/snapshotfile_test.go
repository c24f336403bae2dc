package snapshotfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

func TestParse_Native(t *testing.T) {
	doc := `
dataset: urn:li:dataset:users
platform: duckdb
raw: |
  CREATE TABLE users (id INTEGER)
fields:
  - path: id
    type: {kind: number, native_type: INTEGER}
    description: primary key
  - path: email
    type: string
    nullable: true
    tags:
      - urn: urn:li:tag:PII
`
	snap, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "urn:li:dataset:users", snap.DatasetURN)
	assert.Equal(t, "duckdb", snap.Platform)
	assert.Equal(t, "CREATE TABLE users (id INTEGER)\n", snap.RawForm)
	require.Len(t, snap.Fields, 2)
	assert.Equal(t, core.SchemaField{
		Path:        "id",
		Type:        core.FieldType{Kind: core.FieldTypeNumber, NativeType: "INTEGER"},
		Description: "primary key",
	}, snap.Fields[0])
	assert.Equal(t, core.FieldTypeString, snap.Fields[1].Type.Kind)
	assert.True(t, snap.Fields[1].Nullable)
	assert.Equal(t, []core.TagRef{{URN: "urn:li:tag:PII"}}, snap.Fields[1].Tags)
}

func TestParse_Export(t *testing.T) {
	doc := `{
  "dataset": "urn:li:dataset:orders",
  "platform": "urn:li:dataPlatform:mysql",
  "schemaName": "orders",
  "platformSchema": {"com.linkedin.schema.MySqlDDL": {"tableSchema": "{\"type\":\"record\"}"}},
  "fields": [
    {"fieldPath": "[version=2.0].[type=record].order.[type=long].id",
     "type": {"type": {"com.linkedin.schema.NumberType": {}}},
     "nativeDataType": "bigint",
     "globalTags": {"tags": [{"tag": {"urn": "urn:li:tag:Key"}}]}},
    {"fieldPath": "note", "type": "STRING", "nativeDataType": "text", "description": "free text"}
  ]
}`
	snap, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "mysql", snap.Platform)
	assert.Equal(t, `{"type":"record"}`, snap.RawForm)
	require.Len(t, snap.Fields, 2)
	assert.Equal(t, core.FieldTypeNumber, snap.Fields[0].Type.Kind)
	assert.Equal(t, "bigint", snap.Fields[0].Type.NativeType)
	assert.Equal(t, []core.TagRef{{URN: "urn:li:tag:Key"}}, snap.Fields[0].Tags)
	assert.Equal(t, core.FieldTypeString, snap.Fields[1].Type.Kind)
	assert.Nil(t, snap.Fields[1].Tags)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want any
	}{
		{"invalid yaml", "fields: [", &ParseError{}},
		{"empty", "", &ParseError{}},
		{"unknown key", "dataset: x\nowner: me\n", &UnknownFieldError{}},
		{"missing dataset", "fields: []\n", &ParseError{}},
		{"field without path", "dataset: x\nfields:\n  - type: string\n", &ParseError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.IsType(t, tt.want, err)
		})
	}
}

func TestParse_UnknownKindIsNull(t *testing.T) {
	snap, err := Parse([]byte("dataset: x\nfields:\n  - path: g\n    type: geometry\n"))
	require.NoError(t, err)
	assert.Equal(t, core.FieldTypeNull, snap.Fields[0].Type.Kind)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "users.yaml")
	require.NoError(t, os.WriteFile(good, []byte("dataset: x\nfields:\n  - path: id\n"), 0o644))
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("fields: ["), 0o644))

	snap, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, "x", snap.DatasetURN)

	_, err = Load(bad)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, bad, pe.Path)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsSnapshotFile(t *testing.T) {
	assert.True(t, IsSnapshotFile("a/b.YAML"))
	assert.True(t, IsSnapshotFile("x.json"))
	assert.False(t, IsSnapshotFile("x.sql"))
}
