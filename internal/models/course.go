package models

import (
	"regexp"
	"strings"
)

// Course is a named, numbered Canvas offering together with its assignments,
// already cleaned and sorted for presentation.
type Course struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Assignments []Assignment `json:"assignments"`
}

// Digest is the full rendered dataset: courses in request order, assignments
// per course in ascending due-date order with dateless entries last.
type Digest struct {
	Title   string   `json:"title"`
	Courses []Course `json:"courses"`
}

var (
	yearSuffixPattern    = regexp.MustCompile(`\s*\([^)]*?\d{4}\)\s*$`)
	seasonSuffixPattern  = regexp.MustCompile(`(?i)\s*\((?:Spring|Fall|Summer|Winter)[^)]*\)\s*$`)
	sectionSuffixPattern = regexp.MustCompile(`(?i)-(?:\d{2}|ON\d?)-\d{5,}`)
	spaceRunPattern      = regexp.MustCompile(`\s{2,}`)
)

// CleanCourseName strips the term and section decorations Canvas appends to
// course names, e.g. "MSBA-265-01-30797 Topics (Spring 2025)" becomes
// "MSBA-265 Topics". Empty input yields "Untitled".
func CleanCourseName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Untitled"
	}

	cleaned := yearSuffixPattern.ReplaceAllString(name, "")
	cleaned = seasonSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = sectionSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = spaceRunPattern.ReplaceAllString(cleaned, " ")

	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "Untitled"
	}

	return cleaned
}
