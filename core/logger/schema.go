package logger

import (
	"log/slog"
	"strings"
)

var knownOutcome = map[string]bool{"ok": true, "fail": true, "cancelled": true}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// normalizeEnums lower-cases status and outcome and drops unknown outcomes.
func normalizeEnums(e entry) {
	if s, ok := e["status"].(string); ok {
		e["status"] = strings.ToLower(s)
	}
	if o, ok := e["outcome"].(string); ok {
		o = strings.ToLower(o)
		if knownOutcome[o] {
			e["outcome"] = o
		} else {
			delete(e, "outcome")
		}
	}
}

// defaultKeyOrder puts correlation keys first, then the schedule context,
// then errors. Keys not listed follow in alphabetical order.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"trigger",
	"from_state",
	"to_state",
	"query",
	"teacher",
	"week",
	"weekday",
	"count",
	"pages",
	"messages",
	"cache",
	"endpoint",
	"http_code",
	"api",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"attempts",
	"backoff_ms",
	"collapsed",
	"repeats",
	"lanes",
}
