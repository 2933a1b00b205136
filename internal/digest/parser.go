// Package digest reads rendered markdown digests back into records and
// checks their data integrity: the document format is a level-2 course
// heading followed by a two-column assignment table.
package digest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Document is a parsed markdown digest.
type Document struct {
	Title   string
	Courses []CourseTable
}

// CourseTable is one course section and its table rows.
type CourseTable struct {
	ID   int
	Name string
	Line int
	Rows []Row
}

// Row is one assignment table row, with cells kept verbatim so validation
// can report exactly what the document says.
type Row struct {
	Title string `validate:"required"`
	Due   string `validate:"required"`
	Line  int
}

var (
	courseHeadingPattern = regexp.MustCompile(`^##\s+Course:\s+(.+?)\s+\(ID:\s*(\d+)\)\s*$`)
	separatorCellPattern = regexp.MustCompile(`^:?-+:?$`)
)

// Parse reads a markdown digest. Malformed course headings and table rows
// outside a course section are errors carrying the offending line number;
// prose outside tables is ignored.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	var current *CourseTable
	headerSeen := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "## "):
			match := courseHeadingPattern.FindStringSubmatch(line)
			if match == nil {
				return Document{}, fmt.Errorf("line %d: malformed course heading %q", lineNo, line)
			}

			id, err := strconv.Atoi(match[2])
			if err != nil {
				return Document{}, fmt.Errorf("line %d: invalid course id %q", lineNo, match[2])
			}

			doc.Courses = append(doc.Courses, CourseTable{ID: id, Name: match[1], Line: lineNo})
			current = &doc.Courses[len(doc.Courses)-1]
			headerSeen = false

		case strings.HasPrefix(line, "# "):
			if doc.Title == "" && current == nil {
				doc.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			}

		case strings.HasPrefix(line, "|"):
			if current == nil {
				return Document{}, fmt.Errorf("line %d: table row outside a course section", lineNo)
			}

			cells, err := splitRow(line)
			if err != nil {
				return Document{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if len(cells) != 2 {
				return Document{}, fmt.Errorf("line %d: expected two columns, got %d", lineNo, len(cells))
			}

			if isSeparator(cells) {
				continue
			}

			if cells[0] == "Assignment" && cells[1] == "Due" {
				headerSeen = true
				continue
			}

			if !headerSeen {
				return Document{}, fmt.Errorf("line %d: table row before the Assignment/Due header", lineNo)
			}

			current.Rows = append(current.Rows, Row{Title: cells[0], Due: cells[1], Line: lineNo})

		default:
			// Prose between tables carries no data.
		}
	}

	if err := scanner.Err(); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// splitRow splits a pipe-delimited table line into trimmed cells, honoring
// backslash-escaped pipes inside cell content.
func splitRow(line string) ([]string, error) {
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") || len(line) < 2 {
		return nil, fmt.Errorf("malformed table row %q", line)
	}

	inner := line[1 : len(line)-1]
	var cells []string
	var cell strings.Builder
	escaped := false

	for _, r := range inner {
		switch {
		case escaped:
			if r != '|' {
				cell.WriteByte('\\')
			}
			cell.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	if escaped {
		cell.WriteByte('\\')
	}
	cells = append(cells, strings.TrimSpace(cell.String()))

	return cells, nil
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		if !separatorCellPattern.MatchString(cell) {
			return false
		}
	}
	return true
}
