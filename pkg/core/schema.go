package core

import (
	"strings"
	"time"
)

// FieldTypeKind is the tag of a FieldType descriptor.
type FieldTypeKind string

// Field type kinds.
const (
	FieldTypeBoolean FieldTypeKind = "boolean"
	FieldTypeFixed   FieldTypeKind = "fixed"
	FieldTypeString  FieldTypeKind = "string"
	FieldTypeBytes   FieldTypeKind = "bytes"
	FieldTypeNumber  FieldTypeKind = "number"
	FieldTypeDate    FieldTypeKind = "date"
	FieldTypeTime    FieldTypeKind = "time"
	FieldTypeEnum    FieldTypeKind = "enum"
	FieldTypeNull    FieldTypeKind = "null"
	FieldTypeMap     FieldTypeKind = "map"
	FieldTypeArray   FieldTypeKind = "array"
	FieldTypeUnion   FieldTypeKind = "union"
	FieldTypeRecord  FieldTypeKind = "record"
)

var fieldTypeKinds = map[string]FieldTypeKind{
	"boolean": FieldTypeBoolean,
	"fixed":   FieldTypeFixed,
	"string":  FieldTypeString,
	"bytes":   FieldTypeBytes,
	"number":  FieldTypeNumber,
	"date":    FieldTypeDate,
	"time":    FieldTypeTime,
	"enum":    FieldTypeEnum,
	"null":    FieldTypeNull,
	"map":     FieldTypeMap,
	"array":   FieldTypeArray,
	"union":   FieldTypeUnion,
	"record":  FieldTypeRecord,
	"struct":  FieldTypeRecord,
}

// ParseFieldTypeKind maps a kind name to a FieldTypeKind. It accepts any
// case, an optional "Type" suffix ("StringType"), and "struct" for record.
// The second result is false for unknown names.
func ParseFieldTypeKind(s string) (FieldTypeKind, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimSuffix(name, "type")
	k, ok := fieldTypeKinds[name]
	return k, ok
}

// FieldType is a tagged type descriptor: the normalized kind plus the
// platform's native type name (e.g. "VARCHAR(255)").
type FieldType struct {
	Kind       FieldTypeKind `json:"kind" yaml:"kind"`
	NativeType string        `json:"native_type,omitempty" yaml:"native_type,omitempty"`
}

// String returns the native type when known, otherwise the kind.
func (t FieldType) String() string {
	if t.NativeType != "" {
		return t.NativeType
	}
	return string(t.Kind)
}

// TagRef references a tag by URN. Name is display-only.
type TagRef struct {
	URN  string `json:"urn" yaml:"urn"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// SchemaField is one declared field in a schema snapshot.
// Path is unique within a snapshot and never empty.
type SchemaField struct {
	Path        string    `json:"path" yaml:"path"`
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Nullable    bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Tags        []TagRef  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Snapshot is one versioned, immutable capture of a dataset schema.
type Snapshot struct {
	DatasetURN string        `json:"dataset_urn"`
	Version    int           `json:"version"`
	Platform   string        `json:"platform,omitempty"`
	Fields     []SchemaField `json:"fields"`
	RawForm    string        `json:"raw_form,omitempty"`
	Hash       string        `json:"hash,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// HasRawForm reports whether the snapshot carries a serialized schema body.
func (s *Snapshot) HasRawForm() bool {
	return s != nil && s.RawForm != ""
}

// FieldList returns the snapshot's fields, tolerating a nil snapshot.
func (s *Snapshot) FieldList() []SchemaField {
	if s == nil {
		return nil
	}
	return s.Fields
}

// VersionInfo describes one stored version of a dataset schema.
type VersionInfo struct {
	Version    int       `json:"version"`
	FieldCount int       `json:"field_count"`
	Hash       string    `json:"hash"`
	CreatedAt  time.Time `json:"created_at"`
}

// DatasetInfo summarizes a dataset known to the store.
type DatasetInfo struct {
	URN           string `json:"urn"`
	Platform      string `json:"platform,omitempty"`
	LatestVersion int    `json:"latest_version"`
}
