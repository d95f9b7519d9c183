// Package middleware holds the global update middleware: panic recovery,
// request context with receipt logging, and reply counting.
package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/schedulebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// StartKey holds the time the update entered the middleware chain.
const StartKey = "update_start"

// LoggerMiddleware attaches the request context to the update and logs a
// sampled receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(StartKey, time.Now())
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	upd := c.Update()
	var payload string
	switch {
	case upd.Callback != nil:
		key, data := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		payload = data
	case upd.Query != nil:
		payload = upd.Query.Text
	case upd.Message != nil:
		payload = upd.Message.Text
	}
	if payload != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
	}
	return attrs
}
