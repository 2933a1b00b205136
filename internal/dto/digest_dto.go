package dto

import (
	"github.com/campustools/canvas-digest/internal/models"
)

// AssignmentResponse is one digest row: a title and its date-only due cell,
// which is either an ISO date or the "No due date" marker.
type AssignmentResponse struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Due         string `json:"due"`
}

// CourseResponse is one course block of the digest.
type CourseResponse struct {
	ID          int                  `json:"id"`
	Name        string               `json:"name"`
	Assignments []AssignmentResponse `json:"assignments"`
}

// DigestResponse is the serialized digest returned to API and JSON-format
// consumers.
type DigestResponse struct {
	Title   string           `json:"title"`
	Courses []CourseResponse `json:"courses"`
}

// NewAssignmentResponse converts a domain assignment into its DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		Title:       model.Title,
		Description: model.Description,
		Due:         model.DueString(),
	}
}

// NewAssignmentResponseSlice converts a slice of assignments into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// NewDigestResponse converts a built digest into its DTO.
func NewDigestResponse(digest models.Digest) DigestResponse {
	courses := make([]CourseResponse, 0, len(digest.Courses))
	for _, course := range digest.Courses {
		courses = append(courses, CourseResponse{
			ID:          course.ID,
			Name:        course.Name,
			Assignments: NewAssignmentResponseSlice(course.Assignments),
		})
	}

	return DigestResponse{Title: digest.Title, Courses: courses}
}
