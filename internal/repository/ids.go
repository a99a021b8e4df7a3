package repository

import (
	"strings"

	"github.com/google/uuid"
)

// IDCandidates returns the forms an opaque id may be stored under. Ids that
// parse as uuids are matched by their canonical form first; the raw string is
// always kept as a fallback for records written before ids were normalized.
func IDCandidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return []string{raw}
	}
	canonical := parsed.String()
	if canonical == raw {
		return []string{raw}
	}
	return []string{canonical, raw}
}
