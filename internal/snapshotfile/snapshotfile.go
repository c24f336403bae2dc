// Package snapshotfile reads schema snapshots from YAML or JSON documents.
//
// Two layouts are accepted. The native layout:
//
//	dataset: urn:li:dataset:(urn:li:dataPlatform:duckdb,main.users,PROD)
//	platform: duckdb
//	raw: |
//	  CREATE TABLE users (...)
//	fields:
//	  - path: id
//	    type: {kind: number, native_type: INTEGER}
//	    description: primary key
//	    tags: [{urn: "urn:li:tag:PII"}]
//
// And a catalog export layout with camelCase keys (fieldPath,
// nativeDataType, globalTags.tags[].tag.urn, platformSchema.tableSchema).
package snapshotfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// ParseError is returned for documents that cannot be decoded.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "snapshot: " + e.Message
	}
	return fmt.Sprintf("snapshot %s: %s", e.Path, e.Message)
}

// UnknownFieldError is returned for unknown top-level keys.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown snapshot key %q", e.Field)
}

// Extensions lists the file extensions Load accepts.
var Extensions = []string{".yaml", ".yml", ".json"}

// IsSnapshotFile reports whether path has a snapshot extension.
func IsSnapshotFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads and parses a snapshot file.
func Load(path string) (*core.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return snap, nil
}

type nativeDoc struct {
	Dataset  string        `yaml:"dataset"`
	Platform string        `yaml:"platform"`
	Raw      string        `yaml:"raw"`
	Fields   []nativeField `yaml:"fields"`
}

type nativeField struct {
	Path        string        `yaml:"path"`
	Type        nativeType    `yaml:"type"`
	Description string        `yaml:"description"`
	Nullable    bool          `yaml:"nullable"`
	Tags        []core.TagRef `yaml:"tags"`
}

// nativeType accepts either a kind string or a {kind, native_type} map.
type nativeType struct {
	Kind       string `yaml:"kind"`
	NativeType string `yaml:"native_type"`
}

func (t *nativeType) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		t.Kind = n.Value
		return nil
	}
	type plain nativeType
	return n.Decode((*plain)(t))
}

type exportDoc struct {
	Dataset        string         `yaml:"dataset"`
	Platform       string         `yaml:"platform"`
	PlatformSchema map[string]any `yaml:"platformSchema"`
	Fields         []exportField  `yaml:"fields"`
}

type exportField struct {
	FieldPath      string `yaml:"fieldPath"`
	Type           any    `yaml:"type"`
	NativeDataType string `yaml:"nativeDataType"`
	Description    string `yaml:"description"`
	Nullable       bool   `yaml:"nullable"`
	GlobalTags     *struct {
		Tags []struct {
			Tag core.TagRef `yaml:"tag"`
		} `yaml:"tags"`
	} `yaml:"globalTags"`
}

var nativeKeys = map[string]bool{"dataset": true, "platform": true, "raw": true, "fields": true}

var exportKeys = map[string]bool{
	"dataset": true, "platform": true, "platformSchema": true, "fields": true,
	"schemaName": true, "version": true, "hash": true, "created": true, "lastModified": true,
	"primaryKeys": true, "foreignKeysSpecs": true, "cluster": true,
}

// Parse decodes a snapshot document. YAML is a superset of JSON, so both
// encodings go through the same decoder.
func Parse(data []byte) (*core.Snapshot, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid document: %v", err)}
	}
	if rawMap == nil {
		return nil, &ParseError{Message: "empty document"}
	}

	if isExport(rawMap) {
		for k := range rawMap {
			if !exportKeys[k] {
				return nil, &UnknownFieldError{Field: k}
			}
		}
		var doc exportDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		return fromExport(doc)
	}

	for k := range rawMap {
		if !nativeKeys[k] {
			return nil, &UnknownFieldError{Field: k}
		}
	}
	var doc nativeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return fromNative(doc)
}

func isExport(m map[string]any) bool {
	if _, ok := m["platformSchema"]; ok {
		return true
	}
	fields, ok := m["fields"].([]any)
	if !ok || len(fields) == 0 {
		return false
	}
	first, ok := fields[0].(map[string]any)
	if !ok {
		return false
	}
	_, ok = first["fieldPath"]
	return ok
}

func fromNative(doc nativeDoc) (*core.Snapshot, error) {
	if doc.Dataset == "" {
		return nil, &ParseError{Message: "missing dataset"}
	}
	snap := &core.Snapshot{
		DatasetURN: doc.Dataset,
		Platform:   doc.Platform,
		RawForm:    doc.Raw,
		Fields:     make([]core.SchemaField, 0, len(doc.Fields)),
	}
	for i, f := range doc.Fields {
		if f.Path == "" {
			return nil, &ParseError{Message: fmt.Sprintf("field %d has no path", i)}
		}
		snap.Fields = append(snap.Fields, core.SchemaField{
			Path:        f.Path,
			Type:        core.FieldType{Kind: kindOf(f.Type.Kind), NativeType: f.Type.NativeType},
			Description: f.Description,
			Nullable:    f.Nullable,
			Tags:        f.Tags,
		})
	}
	return snap, nil
}

func fromExport(doc exportDoc) (*core.Snapshot, error) {
	if doc.Dataset == "" {
		return nil, &ParseError{Message: "missing dataset"}
	}
	snap := &core.Snapshot{
		DatasetURN: doc.Dataset,
		Platform:   strings.TrimPrefix(doc.Platform, "urn:li:dataPlatform:"),
		RawForm:    exportRaw(doc.PlatformSchema),
		Fields:     make([]core.SchemaField, 0, len(doc.Fields)),
	}
	for i, f := range doc.Fields {
		if f.FieldPath == "" {
			return nil, &ParseError{Message: fmt.Sprintf("field %d has no fieldPath", i)}
		}
		field := core.SchemaField{
			Path:        f.FieldPath,
			Type:        core.FieldType{Kind: kindOf(exportKind(f.Type)), NativeType: f.NativeDataType},
			Description: f.Description,
			Nullable:    f.Nullable,
		}
		if f.GlobalTags != nil {
			field.Tags = make([]core.TagRef, 0, len(f.GlobalTags.Tags))
			for _, t := range f.GlobalTags.Tags {
				field.Tags = append(field.Tags, t.Tag)
			}
		}
		snap.Fields = append(snap.Fields, field)
	}
	return snap, nil
}

// exportKind reads the kind from "STRING" or {"type": {"StringType": {}}}.
func exportKind(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if inner, ok := t["type"]; ok {
			return exportKind(inner)
		}
		for k := range t {
			return strings.TrimPrefix(k, "com.linkedin.schema.")
		}
	}
	return ""
}

func exportRaw(ps map[string]any) string {
	for _, key := range []string{"tableSchema", "schema", "documentSchema", "rawSchema"} {
		if s, ok := ps[key].(string); ok {
			return s
		}
	}
	// Nested union form: {"com.linkedin.schema.MySqlDDL": {"tableSchema": "..."}}
	for _, v := range ps {
		if inner, ok := v.(map[string]any); ok {
			if s := exportRaw(inner); s != "" {
				return s
			}
		}
	}
	return ""
}

func kindOf(s string) core.FieldTypeKind {
	if k, ok := core.ParseFieldTypeKind(s); ok {
		return k
	}
	return core.FieldTypeNull
}
