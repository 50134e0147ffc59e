package utils

import (
	"strings"
)

// LogicalNameSeparator joins a display name with its uniqueness scope.
const LogicalNameSeparator = "|"

// EncodeLogicalName builds the per-tenant uniqueness key for a display name:
// raw, then each scope component (branch, tenant), joined by "|".
//
// The name must be non-blank and none of the parts may contain the
// separator, which keeps the encoding injective: two different
// (name, scope) tuples never produce the same key.
func EncodeLogicalName(raw string, scope ...string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", NewBadRequest("name is required")
	}
	if strings.Contains(raw, LogicalNameSeparator) {
		return "", NewBadRequest("name must not contain " + LogicalNameSeparator)
	}
	parts := make([]string, 0, len(scope)+1)
	parts = append(parts, raw)
	for _, s := range scope {
		if strings.Contains(s, LogicalNameSeparator) {
			return "", NewBadRequest("scope must not contain " + LogicalNameSeparator)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, LogicalNameSeparator), nil
}
