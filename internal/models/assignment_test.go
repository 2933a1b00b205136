package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDueAt(t *testing.T) {
	parsed := ParseDueAt("2025-03-01T07:59:59Z")
	require.NotNil(t, parsed)
	require.Equal(t, time.Date(2025, 3, 1, 7, 59, 59, 0, time.UTC), *parsed)

	offset := ParseDueAt("2025-03-01T23:30:00-08:00")
	require.NotNil(t, offset)
	require.Equal(t, time.Date(2025, 3, 2, 7, 30, 0, 0, time.UTC), *offset)

	require.Nil(t, ParseDueAt(""))
	require.Nil(t, ParseDueAt("next tuesday"))
}

func TestFormatDue(t *testing.T) {
	due := time.Date(2025, 2, 14, 23, 59, 0, 0, time.UTC)
	require.Equal(t, "2025-02-14", FormatDue(&due))
	require.Equal(t, NoDueDate, FormatDue(nil))
}

func TestSortAssignmentsDatelessLast(t *testing.T) {
	early := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	assignments := []Assignment{
		{Title: "No date A"},
		{Title: "Late", DueAt: &late},
		{Title: "No date B"},
		{Title: "Early", DueAt: &early},
	}

	SortAssignments(assignments)

	titles := make([]string, 0, len(assignments))
	for _, a := range assignments {
		titles = append(titles, a.Title)
	}
	require.Equal(t, []string{"Early", "Late", "No date A", "No date B"}, titles)
}

func TestSortAssignmentsStableOnTies(t *testing.T) {
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	assignments := []Assignment{
		{Title: "First", DueAt: &due},
		{Title: "Second", DueAt: &due},
	}

	SortAssignments(assignments)
	require.Equal(t, "First", assignments[0].Title)
	require.Equal(t, "Second", assignments[1].Title)
}
