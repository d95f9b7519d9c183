// Package format holds small helpers for optional values in decoded payloads.
package format

import "strings"

// DerefString safely dereferences a *string and returns a default value if nil.
func DerefString(s *string, defaultVal string) string {
	if s != nil {
		return *s
	}
	return defaultVal
}

// NonEmpty returns the trimmed value of s, or fallback when it is nil or blank.
func NonEmpty(s *string, fallback string) string {
	v := strings.TrimSpace(DerefString(s, ""))
	if v == "" {
		return fallback
	}
	return v
}
