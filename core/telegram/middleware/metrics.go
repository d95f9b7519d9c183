package middleware

import (
	tghelpers "github.com/m3rciful/schedulebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageMetricsMiddleware counts the replies queued while handling an
// update; handler summaries read them back with helpers.Replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.TrackReplies(c)
		return next(c)
	}
}
