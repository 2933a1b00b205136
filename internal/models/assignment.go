package models

import (
	"sort"
	"time"
)

// NoDueDate is the literal marker rendered for assignments without a due
// timestamp. Parsers treat it as the only valid non-date due cell.
const NoDueDate = "No due date"

// DueDateLayout is the date-only form used in every rendered output.
const DueDateLayout = "2006-01-02"

// Assignment is a gradable task within a course. DueAt is nil when Canvas
// reports no due timestamp.
type Assignment struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// DueString renders the due date in its date-only form, or the NoDueDate
// marker when the assignment has none.
func (a Assignment) DueString() string {
	return FormatDue(a.DueAt)
}

// FormatDue renders an optional due timestamp as a date-only string.
func FormatDue(due *time.Time) string {
	if due == nil {
		return NoDueDate
	}
	return due.UTC().Format(DueDateLayout)
}

// ParseDueAt interprets a Canvas due_at value (RFC 3339, usually with a Z
// suffix) as a UTC timestamp. Empty or malformed values yield nil, matching
// the lenient handling of upstream payloads.
func ParseDueAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}

	utc := parsed.UTC()
	return &utc
}

// SortAssignments orders assignments ascending by due date. Assignments
// without a due date sort after all dated ones; the sort is stable so ties
// and dateless entries keep their fetch order.
func SortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		left, right := assignments[i].DueAt, assignments[j].DueAt
		switch {
		case left == nil:
			return false
		case right == nil:
			return true
		default:
			return left.Before(*right)
		}
	})
}
