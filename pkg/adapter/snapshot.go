package adapter

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DatasetURN builds a dataset URN for a table on a platform.
func DatasetURN(platform, table, env string) string {
	if env == "" {
		env = "PROD"
	}
	return fmt.Sprintf("urn:li:dataset:(urn:li:dataPlatform:%s,%s,%s)", platform, table, env)
}

var integerTypes = map[string]bool{
	"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true, "BIGINT": true, "HUGEINT": true,
	"UTINYINT": true, "USMALLINT": true, "UINTEGER": true, "UBIGINT": true,
	"INT2": true, "INT4": true, "INT8": true, "SERIAL": true, "BIGSERIAL": true,
}

// KindForNativeType maps a SQL type name onto a field type kind.
func KindForNativeType(native string) core.FieldTypeKind {
	t := strings.ToUpper(strings.TrimSpace(native))
	if i := strings.IndexAny(t, "(<"); i >= 0 {
		// DECIMAL(10,2), STRUCT<...>, MAP<...> - judge by the head only
		if strings.HasSuffix(t, "[]") {
			return core.FieldTypeArray
		}
		t = strings.TrimSpace(t[:i])
	}
	switch {
	case strings.HasSuffix(t, "[]") || t == "ARRAY" || t == "LIST":
		return core.FieldTypeArray
	case t == "BOOLEAN" || t == "BOOL":
		return core.FieldTypeBoolean
	case strings.HasPrefix(t, "TIME") || t == "INTERVAL":
		return core.FieldTypeTime
	case integerTypes[t] || t == "DECIMAL" || t == "NUMERIC" || t == "REAL" ||
		t == "DOUBLE" || t == "DOUBLE PRECISION" || t == "FLOAT" || strings.HasPrefix(t, "FLOAT"):
		return core.FieldTypeNumber
	case strings.Contains(t, "CHAR") || t == "TEXT" || t == "STRING" || t == "UUID" || t == "JSON" || t == "JSONB":
		return core.FieldTypeString
	case t == "BLOB" || t == "BYTEA" || t == "BINARY" || t == "VARBINARY":
		return core.FieldTypeBytes
	case t == "DATE":
		return core.FieldTypeDate
	case t == "ENUM":
		return core.FieldTypeEnum
	case t == "MAP":
		return core.FieldTypeMap
	case t == "STRUCT" || t == "RECORD" || t == "ROW":
		return core.FieldTypeRecord
	case t == "UNION":
		return core.FieldTypeUnion
	case t == "NULL":
		return core.FieldTypeNull
	default:
		return core.FieldTypeString
	}
}

// ToSnapshot converts captured table metadata into an unversioned snapshot.
// The raw form is the metadata itself as indented JSON.
func ToSnapshot(meta *core.TableMetadata, platform, env string) (*core.Snapshot, error) {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal table metadata: %w", err)
	}

	snap := &core.Snapshot{
		DatasetURN: DatasetURN(platform, meta.Schema+"."+meta.Name, env),
		Platform:   platform,
		RawForm:    string(raw),
		Fields:     make([]core.SchemaField, 0, len(meta.Columns)),
	}
	for _, c := range meta.Columns {
		snap.Fields = append(snap.Fields, core.SchemaField{
			Path:        c.Name,
			Type:        core.FieldType{Kind: KindForNativeType(c.Type), NativeType: c.Type},
			Description: c.Comment,
			Nullable:    c.Nullable,
		})
	}
	return snap, nil
}
