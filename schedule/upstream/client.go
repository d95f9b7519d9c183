// Package upstream talks to the schedule, current-week and name-decoding
// services and adapts their payloads into lesson.Lesson.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/netutil"
)

const (
	defaultTimeout       = 5 * time.Second
	maxResponseBodyBytes = 8 << 20
)

// NewHTTPClient returns a client for upstream calls. It never retries: a
// timeout surfaces as a failure like any non-200 response.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := netutil.NewTransport(netutil.TransportOptions{
		DialTimeout:   3 * time.Second,
		HeaderTimeout: timeout,
		MaxIdleConns:  50,
	})
	return &http.Client{Timeout: timeout, Transport: transport}
}

// getJSON performs a GET and decodes a JSON body into dst.
func getJSON(ctx context.Context, client *http.Client, endpoint, rawURL string, header http.Header, dst any) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return unavailable(endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logCall(ctx, endpoint, 0, start, err)
		return unavailable(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		statusErr := &StatusError{Endpoint: endpoint, Status: resp.StatusCode}
		logCall(ctx, endpoint, resp.StatusCode, start, statusErr)
		return statusErr
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(dst); err != nil {
		logCall(ctx, endpoint, resp.StatusCode, start, err)
		return unavailable(endpoint, err)
	}
	logCall(ctx, endpoint, resp.StatusCode, start, nil)
	return nil
}

func logCall(ctx context.Context, endpoint string, status int, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("endpoint", endpoint),
		slog.Duration("duration", logger.Took(start)),
	}
	if status != 0 {
		attrs = append(attrs, slog.Int("http_code", status))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Warn(ctx, "upstream", "upstream.call", attrs...)
		return
	}
	logger.Debug(ctx, "upstream", "upstream.call", attrs...)
}

func joinURL(base string, parts ...string) string {
	out := strings.TrimRight(strings.TrimSpace(base), "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
