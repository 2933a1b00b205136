package digest_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campustools/canvas-digest/internal/digest"
)

func TestValidateCleanDocument(t *testing.T) {
	doc, err := digest.Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	violations := digest.NewValidator().Validate(doc)
	require.Empty(t, violations)
}

func TestValidateInvalidDueCell(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{
		ID: 1, Name: "Ops", Line: 1,
		Rows: []digest.Row{{Title: "A1", Due: "02/01/2025", Line: 4}},
	}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].String(), "neither an ISO date")
	require.Equal(t, 4, violations[0].Line)
}

func TestValidateDuplicateTitles(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{
		ID: 1, Name: "Ops", Line: 1,
		Rows: []digest.Row{
			{Title: "A1", Due: "2025-02-01", Line: 4},
			{Title: "A1", Due: "2025-03-01", Line: 5},
		},
	}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "duplicate assignment title")
}

func TestValidateOrderingViolations(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{
		ID: 1, Name: "Ops", Line: 1,
		Rows: []digest.Row{
			{Title: "A2", Due: "2025-03-01", Line: 4},
			{Title: "A1", Due: "2025-02-01", Line: 5},
		},
	}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "breaks ascending order")
}

func TestValidateDatedRowAfterDateless(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{
		ID: 1, Name: "Ops", Line: 1,
		Rows: []digest.Row{
			{Title: "Essay", Due: "No due date", Line: 4},
			{Title: "A1", Due: "2025-02-01", Line: 5},
		},
	}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, `dated row follows`)
}

func TestValidateDuplicateCourseIDs(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{
		{ID: 1, Name: "Ops", Line: 1},
		{ID: 1, Name: "Ops Again", Line: 6},
	}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "already used on line 1")
}

func TestValidateEmptyCells(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{
		ID: 1, Name: "Ops", Line: 1,
		Rows: []digest.Row{{Title: "", Due: "", Line: 4}},
	}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 2)
	require.Contains(t, violations[0].Message, "empty Title cell")
	require.Contains(t, violations[1].Message, "empty Due cell")
}

func TestValidateNonPositiveCourseID(t *testing.T) {
	doc := digest.Document{Courses: []digest.CourseTable{{ID: 0, Name: "Ops", Line: 1}}}

	violations := digest.NewValidator().Validate(doc)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "must be positive")
}
