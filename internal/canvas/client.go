package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Course listing sources. SourceCourses prefers the generic courses endpoint,
// SourceSelf prefers the per-user one; either falls back to the other when
// the preferred endpoint answers with a server error.
const (
	SourceCourses = "courses"
	SourceSelf    = "self"
)

const (
	userAgent         = "canvas-digest/1.0"
	defaultTimeout    = 20 * time.Second
	defaultMaxRetries = 4
	defaultPerPage    = 100
	defaultRetryAfter = 3 * time.Second
)

// Term is the enrollment term attached to a course payload.
type Term struct {
	Name string `json:"name"`
}

// Course is the raw Canvas course payload, trimmed to the fields this tool
// consumes.
type Course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Term *Term  `json:"term,omitempty"`
}

// TermName returns the enrollment term name, or "" when absent.
func (c Course) TermName() string {
	if c.Term == nil {
		return ""
	}
	return c.Term.Name
}

// Assignment is the raw Canvas assignment payload. Published is a pointer
// because older Canvas instances omit the field, which counts as published.
type Assignment struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DueAt       string `json:"due_at"`
	Published   *bool  `json:"published"`
}

// IsPublished reports whether the assignment should appear in output.
func (a Assignment) IsPublished() bool {
	return a.Published == nil || *a.Published
}

// StatusError is returned when Canvas answers with a non-success status that
// survived the retry budget.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("canvas: %s returned status %d", e.URL, e.StatusCode)
}

// IsServerError reports whether err is a StatusError in the 5xx range.
func IsServerError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusInternalServerError
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
	PerPage    int
}

// Client is a minimal Canvas REST client: bearer auth, Link-header
// pagination, Retry-After and backoff handling.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	perPage    int
	logger     zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Canvas client for the given instance.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		perPage:    perPage,
		logger:     logger.With().Str("component", "canvas_client").Logger(),
		sleep:      sleepContext,
	}
}

// GetCourse fetches a single course, including its enrollment term.
func (c *Client) GetCourse(ctx context.Context, id int) (Course, error) {
	params := url.Values{}
	params.Add("include[]", "term")

	body, _, err := c.get(ctx, fmt.Sprintf("%s/api/v1/courses/%d", c.baseURL, id), params)
	if err != nil {
		return Course{}, err
	}

	var course Course
	if err := json.Unmarshal(body, &course); err != nil {
		return Course{}, fmt.Errorf("decode course %d: %w", id, err)
	}

	return course, nil
}

// ListCourses lists the caller's student courses whose term name contains
// term (case-insensitive), capped at max. The source selects which endpoint
// to try first; a server error from the preferred endpoint falls through to
// the other, any other failure propagates.
func (c *Client) ListCourses(ctx context.Context, term string, max int, source string) ([]Course, error) {
	endpoints := []string{"/api/v1/courses", "/api/v1/users/self/courses"}
	if source == SourceSelf {
		endpoints[0], endpoints[1] = endpoints[1], endpoints[0]
	}

	for _, endpoint := range endpoints {
		matches, err := c.listCoursesAt(ctx, endpoint, term, max)
		if err != nil {
			if IsServerError(err) {
				c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("course listing failed, trying fallback endpoint")
				continue
			}
			return nil, err
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	return nil, nil
}

func (c *Client) listCoursesAt(ctx context.Context, endpoint, term string, max int) ([]Course, error) {
	params := url.Values{}
	params.Add("enrollment_type[]", "student")
	params.Add("enrollment_state[]", "active")
	params.Add("enrollment_state[]", "completed")
	params.Add("include[]", "term")
	params.Add("per_page", strconv.Itoa(c.perPage))

	var matches []Course
	err := c.paginate(ctx, c.baseURL+endpoint, params, func(page []byte) (bool, error) {
		var batch []Course
		if err := json.Unmarshal(page, &batch); err != nil {
			return false, fmt.Errorf("decode course page: %w", err)
		}

		for _, course := range batch {
			if term != "" && !strings.Contains(strings.ToLower(course.TermName()), strings.ToLower(term)) {
				continue
			}
			matches = append(matches, course)
			if len(matches) >= max {
				return false, nil
			}
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// ListAssignments lists the published assignments of a course.
func (c *Client) ListAssignments(ctx context.Context, courseID int) ([]Assignment, error) {
	params := url.Values{}
	params.Add("per_page", strconv.Itoa(c.perPage))

	var assignments []Assignment
	err := c.paginate(ctx, fmt.Sprintf("%s/api/v1/courses/%d/assignments", c.baseURL, courseID), params, func(page []byte) (bool, error) {
		var batch []Assignment
		if err := json.Unmarshal(page, &batch); err != nil {
			return false, fmt.Errorf("decode assignment page: %w", err)
		}

		for _, assignment := range batch {
			if assignment.IsPublished() {
				assignments = append(assignments, assignment)
			}
		}

		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

// paginate walks a paginated collection following rel="next" Link headers.
// Query parameters are only sent on the first request; next links already
// carry theirs.
func (c *Client) paginate(ctx context.Context, rawURL string, params url.Values, each func(page []byte) (bool, error)) error {
	for rawURL != "" {
		body, header, err := c.get(ctx, rawURL, params)
		if err != nil {
			return err
		}

		keepGoing, err := each(body)
		if err != nil || !keepGoing {
			return err
		}

		rawURL = nextLink(header)
		params = nil
	}

	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values) ([]byte, http.Header, error) {
	requestURL := rawURL
	if len(params) > 0 {
		requestURL = rawURL + "?" + params.Encode()
	}

	attempt := 0
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			delay := retryAfter(resp.Header)
			discard(resp)
			c.logger.Warn().Dur("retry_after", delay).Str("url", requestURL).Msg("rate limited by canvas")
			if err := c.sleep(ctx, delay); err != nil {
				return nil, nil, err
			}
			continue

		case isRetryableStatus(resp.StatusCode):
			discard(resp)
			if attempt >= c.maxRetries {
				return nil, nil, &StatusError{StatusCode: resp.StatusCode, URL: requestURL}
			}
			backoff := time.Duration(1<<attempt) * time.Second
			c.logger.Debug().Int("status", resp.StatusCode).Dur("backoff", backoff).Str("url", requestURL).Msg("retrying canvas request")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, nil, err
			}
			attempt++
			continue

		case resp.StatusCode >= http.StatusBadRequest:
			discard(resp)
			return nil, nil, &StatusError{StatusCode: resp.StatusCode, URL: requestURL}
		}

		body, err := io.ReadAll(resp.Body)
		closeErr := resp.Body.Close()
		if err != nil {
			return nil, nil, err
		}
		if closeErr != nil {
			return nil, nil, closeErr
		}

		return body, resp.Header, nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// nextLink extracts the rel="next" target from an RFC 5988 Link header.
func nextLink(header http.Header) string {
	for _, part := range strings.Split(header.Get("Link"), ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

func retryAfter(header http.Header) time.Duration {
	if raw := header.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
