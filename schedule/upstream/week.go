package upstream

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// WeekClient looks up the current academic week. Concurrent lookups from
// different sessions share one outbound request.
type WeekClient struct {
	baseURL string
	client  *http.Client
	group   singleflight.Group
}

// NewWeekClient builds a current-week client rooted at baseURL.
func NewWeekClient(baseURL string, client *http.Client) *WeekClient {
	return &WeekClient{baseURL: baseURL, client: client}
}

type currentWeekPayload struct {
	Week int `json:"week"`
}

// CurrentWeek returns the week number reported by the service. The shared
// request is detached from ctx, so one caller giving up does not fail the
// others waiting on it; the client timeout still bounds it.
func (c *WeekClient) CurrentWeek(ctx context.Context) (int, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan("current_week", func() (any, error) {
		var payload currentWeekPayload
		if err := getJSON(detached, c.client, "schedule.current_week", joinURL(c.baseURL, "schedule", "current_week"), nil, &payload); err != nil {
			return 0, err
		}
		if payload.Week <= 0 {
			return 0, fmt.Errorf("%w: invalid current week %d", ErrUnavailable, payload.Week)
		}
		return payload.Week, nil
	})
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}
