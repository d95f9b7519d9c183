package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// execute runs c until it succeeds, fails permanently, runs out of retries
// or exceeds MaxDuration.
func (d *Dispatcher) execute(c call) {
	ctx, cancel := context.WithTimeout(c.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	var err error
	for attempt := 1; ; attempt++ {
		if err = c.run(); err == nil {
			if logger.ShouldSampleDebug() || attempt > 1 {
				logger.Debug(c.ctx, "tg.sender", "send.ok", callAttrs(c, attempt, start)...)
			}
			return
		}
		wait, retry := d.backoff(err, attempt)
		if !retry {
			break
		}
		logger.Debug(c.ctx, "tg.sender", "send.retry",
			append(callAttrs(c, attempt, start), slog.Duration("backoff", wait))...)
		if !sleep(ctx, wait) {
			err = errors.Join(err, ctx.Err())
			break
		}
	}

	d.failed.Add(1)
	attrs := append(callAttrs(c, 0, start),
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.String("error_kind", errorKind(err)),
	)
	if code := apiCode(err); code != 0 {
		attrs = append(attrs, slog.Int("http_code", code))
	}
	logger.Error(c.ctx, "tg.sender", "send.fail", attrs...)
}

// backoff decides whether a failed attempt is worth repeating. Flood
// control waits what Telegram asks for; transport and 5xx failures back off
// linearly.
func (d *Dispatcher) backoff(err error, attempt int) (time.Duration, bool) {
	if attempt > d.opts.MaxRetries {
		return 0, false
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if netutil.ShouldRetry(err) || apiCode(err) >= http.StatusInternalServerError {
		return d.opts.RetryBackoff * time.Duration(attempt), true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func callAttrs(c call, attempt int, start time.Time) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", c.action),
		slog.String("endpoint", c.endpoint),
		slog.Duration("duration", logger.Took(start)),
	}
	if attempt > 1 {
		attrs = append(attrs, slog.Int("attempt", attempt))
	}
	return attrs
}

// apiCode extracts the HTTP-like code of a Bot API error.
func apiCode(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	var group tele.GroupError
	if errors.As(err, &group) {
		return http.StatusBadRequest
	}
	return 0
}

func errorKind(err error) string {
	switch code := apiCode(err); {
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return netutil.Kind(err)
}

// redact keeps bot tokens out of logs; telebot errors embed request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return logger.SanitizeLimit(tokenRe.ReplaceAllString(err.Error(), "bot<redacted>"), 256)
}
