package constants

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeLabel turns boundary input such as "in_progress", "IN-PROGRESS" or
// " under review " into the title-cased form used by the enum values.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.English).String(strings.ToLower(s))
}

// ParseTaskStatus returns the canonical TaskStatus for s.
// The second return value is false if s does not name a known status.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	candidate := TaskStatus(normalizeLabel(s))
	for _, status := range AllTaskStatuses() {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// ParsePriority returns the canonical Priority for s.
func ParsePriority(s string) (Priority, bool) {
	candidate := Priority(normalizeLabel(s))
	for _, p := range AllPriorities() {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}

// ParseCategory returns the canonical Category for s.
func ParseCategory(s string) (Category, bool) {
	candidate := Category(normalizeLabel(s))
	for _, c := range AllCategories() {
		if c == candidate {
			return c, true
		}
	}
	return "", false
}

// ParseEntityType returns the canonical EntityType for s.
func ParseEntityType(s string) (EntityType, bool) {
	candidate := EntityType(normalizeLabel(s))
	for _, e := range AllEntityTypes() {
		if e == candidate {
			return e, true
		}
	}
	return "", false
}

// ParseRecurrencePattern returns the canonical RecurrencePattern for s.
// Patterns are lowercase on the wire.
func ParseRecurrencePattern(s string) (RecurrencePattern, bool) {
	candidate := RecurrencePattern(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range AllRecurrencePatterns() {
		if p == candidate {
			return p, true
		}
	}
	return "", false
}
