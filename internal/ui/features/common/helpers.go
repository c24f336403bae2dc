// Package common provides shared components and helpers for UI features.
package common

import (
	"net/url"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// StatusClass returns the CSS class for a field status.
func StatusClass(s core.FieldStatus) string {
	switch s {
	case core.FieldAdded:
		return "status-added"
	case core.FieldRemoved:
		return "status-removed"
	case core.FieldDescriptionUpdated:
		return "status-updated"
	default:
		return "status-unchanged"
	}
}

var titleCaser = cases.Title(language.English)

// StatusLabel returns a human-readable label for a field status.
func StatusLabel(s core.FieldStatus) string {
	switch s {
	case core.FieldDescriptionUpdated:
		return "Description Updated"
	case core.FieldUnchanged, "":
		return ""
	default:
		return titleCaser.String(string(s))
	}
}

// TagLabel returns the display name of a tag.
func TagLabel(t core.TagRef) string {
	if t.Name != "" {
		return t.Name
	}
	if len(t.URN) > len(core.TagURNPrefix) && t.URN[:len(core.TagURNPrefix)] == core.TagURNPrefix {
		return t.URN[len(core.TagURNPrefix):]
	}
	return t.URN
}

// DatasetPath returns the URL path of a dataset's schema page.
func DatasetPath(urn string) string {
	return "/datasets/" + url.PathEscape(urn) + "/schema"
}

// VersionLabel formats a version number like "v3".
func VersionLabel(v int) string {
	return "v" + strconv.Itoa(v)
}
