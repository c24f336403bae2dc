package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

func TestConvertTagsForUpdate(t *testing.T) {
	tests := []struct {
		name string
		in   []core.TagRef
		want []core.TagUpdate
	}{
		{"nil", nil, []core.TagUpdate{}},
		{"keeps order", []core.TagRef{{URN: "urn:li:tag:B"}, {URN: "urn:li:tag:A", Name: "A"}},
			[]core.TagUpdate{{URN: "urn:li:tag:B"}, {URN: "urn:li:tag:A"}}},
		{"drops empty urn", []core.TagRef{{Name: "orphan"}, {URN: "urn:li:tag:PII"}},
			[]core.TagUpdate{{URN: "urn:li:tag:PII"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ConvertTagsForUpdate(tt.in)
			assert.Equal(t, tt.want, got.Tags)
		})
	}
}

func TestParseTags(t *testing.T) {
	tags := core.ParseTags([]string{"pii", "urn:li:tag:Key", "a,b", " "})
	urns := make([]string, 0, len(tags))
	for _, tag := range tags {
		urns = append(urns, tag.URN)
	}
	assert.Equal(t, []string{"urn:li:tag:pii", "urn:li:tag:Key", "urn:li:tag:a", "urn:li:tag:b"}, urns)
	assert.Empty(t, core.ParseTags(nil))
}

func TestEditOverlayEntry_Clone(t *testing.T) {
	orig := core.EditOverlayEntry{
		FieldPath:   "a",
		Description: core.StringPtr("x"),
		Tags:        []core.TagRef{{URN: "urn:li:tag:T"}},
	}
	cp := orig.Clone()
	*cp.Description = "changed"
	cp.Tags[0].URN = "changed"

	assert.Equal(t, "x", *orig.Description)
	assert.Equal(t, "urn:li:tag:T", orig.Tags[0].URN)

	empty := core.EditOverlayEntry{FieldPath: "b", Tags: []core.TagRef{}}
	assert.NotNil(t, empty.Clone().Tags, "cleared tags must stay distinguishable from absent")
	assert.Nil(t, core.EditOverlayEntry{FieldPath: "c"}.Clone().Tags)
}

func TestFieldDiffRow_Effective(t *testing.T) {
	row := core.FieldDiffRow{Field: core.SchemaField{
		Path:        "a",
		Description: "orig",
		Tags:        []core.TagRef{{URN: "urn:li:tag:X"}},
	}}
	assert.Equal(t, "orig", row.EffectiveDescription())
	assert.Len(t, row.EffectiveTags(), 1)

	row.Edit = &core.EditOverlayEntry{FieldPath: "a", Tags: []core.TagRef{}}
	assert.Equal(t, "orig", row.EffectiveDescription())
	assert.Empty(t, row.EffectiveTags())

	row.Edit.Description = core.StringPtr("")
	assert.Equal(t, "", row.EffectiveDescription())
}

func TestFieldType_String(t *testing.T) {
	assert.Equal(t, "VARCHAR", core.FieldType{Kind: core.FieldTypeString, NativeType: "VARCHAR"}.String())
	assert.Equal(t, "number", core.FieldType{Kind: core.FieldTypeNumber}.String())
}

func TestSnapshot_NilSafe(t *testing.T) {
	var s *core.Snapshot
	assert.False(t, s.HasRawForm())
	assert.Nil(t, s.FieldList())
	assert.Equal(t, core.VersionPair{Newer: 3, Older: 2}, core.PairFor(3))
}

func TestParseFieldTypeKind(t *testing.T) {
	tests := []struct {
		in   string
		want core.FieldTypeKind
		ok   bool
	}{
		{"STRING", core.FieldTypeString, true},
		{"NumberType", core.FieldTypeNumber, true},
		{"struct", core.FieldTypeRecord, true},
		{" map ", core.FieldTypeMap, true},
		{"geometry", "", false},
	}
	for _, tt := range tests {
		got, ok := core.ParseFieldTypeKind(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
