// Package render turns a built digest into one of the supported output
// formats. The text and markdown layouts are load-bearing: the markdown form
// is what the digest parser reads back.
package render

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/campustools/canvas-digest/internal/dto"
	"github.com/campustools/canvas-digest/internal/models"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned for format names outside Formats().
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatText, FormatMarkdown, FormatHTML, FormatCSV, FormatJSON}
}

// ContentType returns the MIME type the serve mode should use for a format.
func ContentType(format string) string {
	switch format {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render serializes the digest in the requested format.
func Render(format string, digest models.Digest) (string, error) {
	switch format {
	case FormatText:
		return renderText(digest), nil
	case FormatMarkdown:
		return renderMarkdown(digest), nil
	case FormatHTML:
		return renderHTML(digest), nil
	case FormatCSV:
		return renderCSV(digest)
	case FormatJSON:
		return renderJSON(digest)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func renderText(digest models.Digest) string {
	lines := []string{digest.Title, ""}
	for _, course := range digest.Courses {
		lines = append(lines, fmt.Sprintf("Course: %s (ID: %d)", course.Name, course.ID))
		for _, assignment := range course.Assignments {
			lines = append(lines, fmt.Sprintf("- %q | Due: %s", assignment.Title, assignment.DueString()))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderMarkdown(digest models.Digest) string {
	lines := []string{fmt.Sprintf("# %s", digest.Title), ""}
	for _, course := range digest.Courses {
		lines = append(lines,
			fmt.Sprintf("## Course: %s (ID: %d)", course.Name, course.ID),
			"| Assignment | Due |",
			"|---|---|",
		)
		for _, assignment := range course.Assignments {
			title := strings.ReplaceAll(assignment.Title, "|", `\|`)
			lines = append(lines, fmt.Sprintf("| %s | %s |", title, assignment.DueString()))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func renderHTML(digest models.Digest) string {
	var b strings.Builder
	b.WriteString(`<!doctype html>
<html><head><meta charset="utf-8">
<title>` + html.EscapeString(digest.Title) + `</title>
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Helvetica,Arial,sans-serif; margin:24px; color:#111}
h1{font-size:24px; margin:0 0 16px}
h2{font-size:18px; margin:24px 0 8px}
table{border-collapse:collapse; width:100%; margin-bottom:12px}
th,td{border:1px solid #ddd; padding:8px; vertical-align:top}
th{background:#f7f7f7; text-align:left}
.container{max-width:960px; margin:0 auto}
</style></head><body><div class="container">
<h1>` + html.EscapeString(digest.Title) + `</h1>
`)

	for _, course := range digest.Courses {
		b.WriteString(fmt.Sprintf("<h2>Course: %s (ID: %d)</h2>", html.EscapeString(course.Name), course.ID))
		b.WriteString("<table><thead><tr><th>Assignment</th><th>Due</th></tr></thead><tbody>")
		for _, assignment := range course.Assignments {
			b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td></tr>",
				html.EscapeString(assignment.Title), html.EscapeString(assignment.DueString())))
		}
		b.WriteString("</tbody></table>")
	}

	b.WriteString("</div></body></html>")
	return b.String()
}

func renderCSV(digest models.Digest) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := w.Write([]string{"course_id", "course_name", "assignment", "due_date"}); err != nil {
		return "", err
	}

	for _, course := range digest.Courses {
		for _, assignment := range course.Assignments {
			record := []string{strconv.Itoa(course.ID), course.Name, assignment.Title, assignment.DueString()}
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	return b.String(), w.Error()
}

func renderJSON(digest models.Digest) (string, error) {
	payload, err := json.MarshalIndent(dto.NewDigestResponse(digest), "", "  ")
	if err != nil {
		return "", err
	}

	return string(payload) + "\n", nil
}
