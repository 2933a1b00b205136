package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campustools/canvas-digest/internal/canvas"
	"github.com/campustools/canvas-digest/internal/dto"
	"github.com/campustools/canvas-digest/internal/render"
	"github.com/campustools/canvas-digest/internal/service"
	"github.com/campustools/canvas-digest/internal/utils"
)

// DigestHandler wires the digest HTTP routes.
type DigestHandler struct {
	service service.DigestService
	logger  zerolog.Logger
}

// NewDigestHandler constructs the handler.
func NewDigestHandler(service service.DigestService, logger zerolog.Logger) *DigestHandler {
	return &DigestHandler{
		service: service,
		logger:  logger.With().Str("component", "digest_handler").Logger(),
	}
}

// Register attaches digest endpoints to the router group.
func (h *DigestHandler) Register(router fiber.Router) {
	router.Get("/digest", h.digest)
	router.Get("/courses/:id/assignments", h.courseAssignments)
}

func (h *DigestHandler) digest(c *fiber.Ctx) error {
	format := c.Query("format", render.FormatJSON)
	if !isKnownFormat(format) {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown format: "+format)
	}

	source := c.Query("source", canvas.SourceCourses)
	if source != canvas.SourceCourses && source != canvas.SourceSelf {
		return utils.SendError(c, fiber.StatusBadRequest, "source must be courses or self")
	}

	courseIDs, err := parseCourseIDs(c.Query("courses"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	term := c.Query("term")
	switch {
	case len(courseIDs) == 0 && term == "":
		return utils.SendError(c, fiber.StatusBadRequest, "either courses or term is required")
	case len(courseIDs) > 0 && term != "":
		return utils.SendError(c, fiber.StatusBadRequest, "courses and term are mutually exclusive")
	}

	max, err := parseQueryInt(c, "max")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "max must be an integer")
	}

	digest, err := h.service.Build(c.Context(), service.BuildRequest{
		CourseIDs: courseIDs,
		Term:      term,
		Max:       max,
		Source:    source,
		Title:     c.Query("title"),
	})
	if err != nil {
		if errors.Is(err, service.ErrNoCourses) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		return h.internalError(c, err)
	}

	if format == render.FormatJSON {
		return utils.SendSuccess(c, "digest built", dto.NewDigestResponse(digest))
	}

	body, err := render.Render(format, digest)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendDocument(c, render.ContentType(format), body)
}

func (h *DigestHandler) courseAssignments(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	assignments, err := h.service.CourseAssignments(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", dto.NewAssignmentResponseSlice(assignments))
}

func (h *DigestHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
