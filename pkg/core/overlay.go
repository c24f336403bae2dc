package core

import "strings"

// EditOverlayEntry is one user edit to a field, keyed by FieldPath.
// A nil Description or Tags means "not overridden"; an empty, non-nil
// Tags slice clears the tags.
type EditOverlayEntry struct {
	FieldPath   string   `json:"field_path"`
	Description *string  `json:"description"`
	Tags        []TagRef `json:"tags"`
}

// Clone returns a deep copy of the entry.
func (e EditOverlayEntry) Clone() EditOverlayEntry {
	out := EditOverlayEntry{FieldPath: e.FieldPath}
	if e.Description != nil {
		d := *e.Description
		out.Description = &d
	}
	if e.Tags != nil {
		out.Tags = append(make([]TagRef, 0, len(e.Tags)), e.Tags...)
	}
	return out
}

// FieldPatch is a partial edit. Keys left nil are absent from the patch.
type FieldPatch struct {
	Description *string
	Tags        []TagRef
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// TagUpdate is the transport shape of one tag association.
type TagUpdate struct {
	URN string `json:"urn"`
}

// TagsUpdate is the transport payload for a tag edit.
type TagsUpdate struct {
	Tags []TagUpdate `json:"tags"`
}

// ConvertTagsForUpdate maps tag associations into the transport payload.
// Associations without a URN are dropped.
func ConvertTagsForUpdate(tags []TagRef) TagsUpdate {
	out := TagsUpdate{Tags: make([]TagUpdate, 0, len(tags))}
	for _, t := range tags {
		if t.URN == "" {
			continue
		}
		out.Tags = append(out.Tags, TagUpdate{URN: t.URN})
	}
	return out
}

// TagRefs converts a transport payload back into tag references.
func (u TagsUpdate) TagRefs() []TagRef {
	out := make([]TagRef, 0, len(u.Tags))
	for _, t := range u.Tags {
		out = append(out, TagRef{URN: t.URN})
	}
	return out
}

// TagURNPrefix is prepended to bare tag names.
const TagURNPrefix = "urn:li:tag:"

// ParseTags turns tag arguments into tag references. Each value may hold
// several comma-separated tags; bare names get TagURNPrefix.
func ParseTags(values []string) []TagRef {
	tags := make([]TagRef, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !strings.HasPrefix(part, "urn:") {
				part = TagURNPrefix + part
			}
			tags = append(tags, TagRef{URN: part})
		}
	}
	return tags
}
