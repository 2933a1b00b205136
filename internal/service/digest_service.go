package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campustools/canvas-digest/internal/canvas"
	"github.com/campustools/canvas-digest/internal/models"
)

// ErrNoCourses indicates that no requested course could be fetched or that a
// term query matched nothing.
var ErrNoCourses = errors.New("no courses matched the request")

// ErrCourseNotFound indicates the requested course does not exist or is not
// visible to the token.
var ErrCourseNotFound = errors.New("course not found")

// DefaultMaxCourses caps course fetching when the caller does not say
// otherwise.
const DefaultMaxCourses = 2

// DefaultTitle is the digest title used when none is supplied.
const DefaultTitle = "Courses & Assignments (sorted by due date)"

// BuildRequest describes one digest build. Exactly one of CourseIDs and Term
// should be set; the entrypoints enforce that before calling Build.
type BuildRequest struct {
	CourseIDs []int
	Term      string
	Max       int
	Source    string
	Title     string
}

func (r BuildRequest) withDefaults() BuildRequest {
	if r.Max <= 0 {
		r.Max = DefaultMaxCourses
	}
	if r.Source == "" {
		r.Source = canvas.SourceCourses
	}
	return r
}

// title resolves the digest title. A term request always gets the
// term-prefixed default, matching the historical output.
func (r BuildRequest) title() string {
	if r.Term != "" {
		return fmt.Sprintf("%s %s", r.Term, DefaultTitle)
	}
	if r.Title != "" {
		return r.Title
	}
	return DefaultTitle
}

// cacheKey identifies the fetched course data only. The title is applied
// after a cache read, so requests differing only by title share one entry.
func (r BuildRequest) cacheKey() string {
	if len(r.CourseIDs) > 0 {
		ids := append([]int(nil), r.CourseIDs...)
		sort.Ints(ids)
		parts := make([]string, 0, len(ids))
		for _, id := range ids {
			parts = append(parts, strconv.Itoa(id))
		}
		return fmt.Sprintf("digest:courses:%s:%d", strings.Join(parts, ","), r.Max)
	}
	return fmt.Sprintf("digest:term:%s:%s:%d", strings.ToLower(r.Term), r.Source, r.Max)
}

// CanvasAPI is the slice of the Canvas client the digest service consumes.
type CanvasAPI interface {
	GetCourse(ctx context.Context, id int) (canvas.Course, error)
	ListCourses(ctx context.Context, term string, max int, source string) ([]canvas.Course, error)
	ListAssignments(ctx context.Context, courseID int) ([]canvas.Assignment, error)
}

// DigestService builds per-course assignment digests.
type DigestService interface {
	Build(ctx context.Context, req BuildRequest) (models.Digest, error)
	CourseAssignments(ctx context.Context, courseID int) ([]models.Assignment, error)
}

type digestService struct {
	api      CanvasAPI
	cache    *redis.Client
	cacheTTL time.Duration
	stripper *bluemonday.Policy
	logger   zerolog.Logger
}

// NewDigestService builds the digest orchestrator. A nil cache client
// disables caching.
func NewDigestService(api CanvasAPI, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DigestService {
	return &digestService{
		api:      api,
		cache:    cache,
		cacheTTL: ttl,
		stripper: bluemonday.StrictPolicy(),
		logger:   logger.With().Str("component", "digest_service").Logger(),
	}
}

func (s *digestService) Build(ctx context.Context, req BuildRequest) (models.Digest, error) {
	req = req.withDefaults()
	cacheKey := req.cacheKey()

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var digest models.Digest
			if unmarshalErr := json.Unmarshal([]byte(cached), &digest); unmarshalErr == nil {
				s.logger.Debug().Str("cache_key", cacheKey).Msg("digest cache hit")
				digest.Title = req.title()
				return digest, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read digest cache")
		}
	}

	courses, err := s.fetchCourses(ctx, req)
	if err != nil {
		return models.Digest{}, err
	}

	digest := models.Digest{Title: req.title(), Courses: make([]models.Course, 0, len(courses))}
	for _, course := range courses {
		assignments, err := s.api.ListAssignments(ctx, course.ID)
		if err != nil {
			// A course without readable assignments still appears in the
			// digest, with an empty table.
			s.logger.Warn().Err(err).Int("course_id", course.ID).Msg("failed to fetch assignments")
			assignments = nil
		}

		digest.Courses = append(digest.Courses, models.Course{
			ID:          course.ID,
			Name:        models.CleanCourseName(course.Name),
			Assignments: s.convert(assignments),
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(digest); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store digest cache")
			}
		}
	}

	return digest, nil
}

func (s *digestService) fetchCourses(ctx context.Context, req BuildRequest) ([]canvas.Course, error) {
	if len(req.CourseIDs) > 0 {
		ids := req.CourseIDs
		if len(ids) > req.Max {
			ids = ids[:req.Max]
		}

		courses := make([]canvas.Course, 0, len(ids))
		for _, id := range ids {
			course, err := s.api.GetCourse(ctx, id)
			if err != nil {
				s.logger.Warn().Err(err).Int("course_id", id).Msg("failed to fetch course")
				continue
			}
			courses = append(courses, course)
		}

		if len(courses) == 0 {
			return nil, ErrNoCourses
		}

		return courses, nil
	}

	courses, err := s.api.ListCourses(ctx, req.Term, req.Max, req.Source)
	if err != nil {
		return nil, err
	}

	if len(courses) == 0 {
		return nil, fmt.Errorf("%w: term %q", ErrNoCourses, req.Term)
	}

	return courses, nil
}

func (s *digestService) CourseAssignments(ctx context.Context, courseID int) ([]models.Assignment, error) {
	raw, err := s.api.ListAssignments(ctx, courseID)
	if err != nil {
		var statusErr *canvas.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	return s.convert(raw), nil
}

// convert maps raw Canvas assignments into domain records: trimmed titles,
// HTML stripped from descriptions, parsed due timestamps, dateless-last
// ordering.
func (s *digestService) convert(raw []canvas.Assignment) []models.Assignment {
	assignments := make([]models.Assignment, 0, len(raw))
	for _, item := range raw {
		title := strings.TrimSpace(item.Name)
		if title == "" {
			title = "Untitled"
		}

		description := strings.TrimSpace(html.UnescapeString(s.stripper.Sanitize(item.Description)))

		assignments = append(assignments, models.Assignment{
			Title:       title,
			Description: description,
			DueAt:       models.ParseDueAt(item.DueAt),
		})
	}

	models.SortAssignments(assignments)
	return assignments
}
