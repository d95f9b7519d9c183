package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/m3rciful/schedulebot/schedule/lesson"
)

const (
	// APISearch is the canonical teacher search endpoint shape.
	APISearch = "search"
	// APILegacy is the older schedules-by-teacher endpoint shape.
	APILegacy = "legacy"
)

// TeacherEntry is one teacher identity returned by a directory search.
type TeacherEntry struct {
	Name    string          `json:"name"`
	Lessons []lesson.Lesson `json:"lessons"`
}

// Directory searches teachers by (partial) name.
type Directory interface {
	Search(ctx context.Context, name string) ([]TeacherEntry, error)
}

// DirectoryClient queries the schedule service for teachers.
type DirectoryClient struct {
	baseURL string
	api     string
	client  *http.Client
}

// NewDirectoryClient builds a client for the given API shape.
func NewDirectoryClient(baseURL, api string, client *http.Client) (*DirectoryClient, error) {
	api = strings.ToLower(strings.TrimSpace(api))
	if api == "" {
		api = APISearch
	}
	if api != APISearch && api != APILegacy {
		return nil, fmt.Errorf("upstream: unsupported api %q; allowed: search, legacy", api)
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("upstream: schedule url is required")
	}
	return &DirectoryClient{baseURL: baseURL, api: api, client: client}, nil
}

// API reports which payload shape the client speaks.
func (c *DirectoryClient) API() string {
	return c.api
}

// Search returns matching teachers. No result maps to ErrNotFound.
func (c *DirectoryClient) Search(ctx context.Context, name string) ([]TeacherEntry, error) {
	escaped := url.PathEscape(name)
	var entries []TeacherEntry
	switch c.api {
	case APILegacy:
		var payload legacyPayload
		if err := getJSON(ctx, c.client, "schedule.teacher", joinURL(c.baseURL, "schedule", "teacher", escaped), nil, &payload); err != nil {
			return nil, err
		}
		entries = payload.entries()
	default:
		var payload []searchEntry
		if err := getJSON(ctx, c.client, "teacher.search", joinURL(c.baseURL, "teacher", "search", escaped), nil, &payload); err != nil {
			return nil, err
		}
		entries = make([]TeacherEntry, 0, len(payload))
		for _, e := range payload {
			entries = append(entries, e.entry())
		}
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}
