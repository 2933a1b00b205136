package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server, opts Options) (*Client, *[]time.Duration) {
	t.Helper()

	opts.BaseURL = server.URL
	if opts.Token == "" {
		opts.Token = "token"
	}

	client := NewClient(opts, zerolog.Nop())

	var slept []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	return client, &slept
}

func TestListAssignmentsPaginatesAndFiltersUnpublished(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Accept"))

		switch r.URL.Path {
		case "/api/v1/courses/128867/assignments":
			require.Equal(t, "100", r.URL.Query().Get("per_page"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/page2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"name":"A1: Rapid Miner Intro","due_at":"2025-02-01T07:59:00Z"},{"name":"Draft","published":false}]`)
		case "/page2":
			require.Empty(t, r.URL.RawQuery, "params must only be sent on the first page")
			fmt.Fprint(w, `[{"name":"A2: Clustering","published":true}]`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, _ := newTestClient(t, server, Options{})

	assignments, err := client.ListAssignments(context.Background(), 128867)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.Equal(t, "A1: Rapid Miner Intro", assignments[0].Name)
	require.Equal(t, "A2: Clustering", assignments[1].Name)
}

func TestGetCourseRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"id":128867,"name":"MSBA-265 Special Analytics Topics","term":{"name":"Spring 2025"}}`)
	}))
	defer server.Close()

	client, slept := newTestClient(t, server, Options{MaxRetries: 3})

	course, err := client.GetCourse(context.Background(), 128867)
	require.NoError(t, err)
	require.Equal(t, 128867, course.ID)
	require.Equal(t, "Spring 2025", course.TermName())
	require.Equal(t, int32(3), calls.Load())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestGetCourseHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id":1,"name":"Ops"}`)
	}))
	defer server.Close()

	client, slept := newTestClient(t, server, Options{})

	_, err := client.GetCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{7 * time.Second}, *slept)
}

func TestGetCourseExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server, Options{MaxRetries: 2})

	_, err := client.GetCourse(context.Background(), 1)
	require.Error(t, err)
	require.True(t, IsServerError(err))
	require.Equal(t, int32(3), calls.Load())
}

func TestListCoursesFiltersByTerm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/courses", r.URL.Path)
		require.Equal(t, []string{"active", "completed"}, r.URL.Query()["enrollment_state[]"])
		fmt.Fprint(w, `[
			{"id":1,"name":"Old Course","term":{"name":"Fall 2024"}},
			{"id":2,"name":"Analytics","term":{"name":"Spring 2025"}},
			{"id":3,"name":"Strategy","term":{"name":"Spring 2025"}},
			{"id":4,"name":"Extra","term":{"name":"Spring 2025"}}
		]`)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server, Options{})

	courses, err := client.ListCourses(context.Background(), "spring 2025", 2, SourceCourses)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, 2, courses[0].ID)
	require.Equal(t, 3, courses[1].ID)
}

func TestListCoursesFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/courses":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/v1/users/self/courses":
			fmt.Fprint(w, `[{"id":9,"name":"Analytics","term":{"name":"Spring 2025"}}]`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, _ := newTestClient(t, server, Options{MaxRetries: 1})

	courses, err := client.ListCourses(context.Background(), "Spring", 2, SourceCourses)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 9, courses[0].ID)
}

func TestListCoursesClientErrorDoesNotFallBack(t *testing.T) {
	var selfHit atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/users/self/courses" {
			selfHit.Store(true)
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server, Options{})

	_, err := client.ListCourses(context.Background(), "Spring", 2, SourceCourses)
	require.Error(t, err)
	require.False(t, IsServerError(err))
	require.False(t, selfHit.Load())
}

func TestSleepContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}
