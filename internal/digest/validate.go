package digest

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campustools/canvas-digest/internal/models"
)

// Violation is one data-integrity finding in a parsed digest.
type Violation struct {
	Line    int
	Course  string
	Message string
}

func (v Violation) String() string {
	switch {
	case v.Line > 0 && v.Course != "":
		return fmt.Sprintf("line %d [%s]: %s", v.Line, v.Course, v.Message)
	case v.Line > 0:
		return fmt.Sprintf("line %d: %s", v.Line, v.Message)
	case v.Course != "":
		return fmt.Sprintf("[%s]: %s", v.Course, v.Message)
	default:
		return v.Message
	}
}

// Validator checks the invariants a well-formed digest document holds:
// valid due cells, unique titles per course, non-decreasing due order with
// dateless rows only at the tail, and positive, unique course IDs.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a digest validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate returns every violation found, in document order. An empty result
// means the document is sound.
func (v *Validator) Validate(doc Document) []Violation {
	var violations []Violation
	seenIDs := make(map[int]int, len(doc.Courses))

	for _, course := range doc.Courses {
		if course.ID <= 0 {
			violations = append(violations, Violation{
				Line: course.Line, Course: course.Name,
				Message: fmt.Sprintf("course id must be positive, got %d", course.ID),
			})
		}

		if firstLine, dup := seenIDs[course.ID]; dup {
			violations = append(violations, Violation{
				Line: course.Line, Course: course.Name,
				Message: fmt.Sprintf("course id %d already used on line %d", course.ID, firstLine),
			})
		} else {
			seenIDs[course.ID] = course.Line
		}

		violations = append(violations, v.validateRows(course)...)
	}

	return violations
}

func (v *Validator) validateRows(course CourseTable) []Violation {
	var violations []Violation
	titles := make(map[string]int, len(course.Rows))
	var previous *time.Time
	datelessSeen := false

	for _, row := range course.Rows {
		if err := v.validate.Struct(row); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				violations = append(violations, Violation{
					Line: row.Line, Course: course.Name,
					Message: fmt.Sprintf("empty %s cell", fieldErr.Field()),
				})
			}
			continue
		}

		if firstLine, dup := titles[row.Title]; dup {
			violations = append(violations, Violation{
				Line: row.Line, Course: course.Name,
				Message: fmt.Sprintf("duplicate assignment title %q, first used on line %d", row.Title, firstLine),
			})
		} else {
			titles[row.Title] = row.Line
		}

		if row.Due == models.NoDueDate {
			datelessSeen = true
			continue
		}

		due, err := time.Parse(models.DueDateLayout, row.Due)
		if err != nil {
			violations = append(violations, Violation{
				Line: row.Line, Course: course.Name,
				Message: fmt.Sprintf("due cell %q is neither an ISO date nor %q", row.Due, models.NoDueDate),
			})
			continue
		}

		if datelessSeen {
			violations = append(violations, Violation{
				Line: row.Line, Course: course.Name,
				Message: fmt.Sprintf("dated row follows a %q row", models.NoDueDate),
			})
		}

		if previous != nil && due.Before(*previous) {
			violations = append(violations, Violation{
				Line: row.Line, Course: course.Name,
				Message: fmt.Sprintf("due date %s breaks ascending order (previous row is %s)", row.Due, previous.Format(models.DueDateLayout)),
			})
		}
		previous = &due
	}

	return violations
}
