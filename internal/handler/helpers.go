package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campustools/canvas-digest/internal/render"
)

func isKnownFormat(format string) bool {
	for _, known := range render.Formats() {
		if format == known {
			return true
		}
	}
	return false
}

// parseCourseIDs parses a comma-separated list of positive course IDs.
func parseCourseIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.Atoi(trimmed)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid course id %q", trimmed)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
