package router

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/schedulebot/core/logger"
	tg "github.com/m3rciful/schedulebot/core/telegram"
	tghelpers "github.com/m3rciful/schedulebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallbacks for text updates.
type TextOptions struct {
	// UnknownCommand handles slash-prefixed text that matches no command.
	UnknownCommand tele.HandlerFunc
	// UnknownText is used when the registry has no text fallback.
	UnknownText tele.HandlerFunc
}

// TextRoutes routes plain text. Slash-prefixed text resolves through the
// registry, aliases included; anything else goes to the text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	handler := func(c tele.Context) error {
		text := c.Text()
		if strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				return run(c, handlerName(key), cmd.Handler)
			}
			if opts.UnknownCommand != nil {
				return run(c, "unknown_command", opts.UnknownCommand)
			}
		}
		if fb := reg.TextFallback(); fb != nil {
			return run(c, "fallback", fb)
		}
		if opts.UnknownText != nil {
			return run(c, "unknown_text", opts.UnknownText)
		}
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "handler.skip", slog.String("handler", "unknown_text"))
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}

// QueryRoute routes inline queries to h.
func QueryRoute(h tele.HandlerFunc) tg.Route {
	return tg.Route{
		Endpoint: tele.OnQuery,
		Handler:  func(c tele.Context) error { return run(c, "inline_query", h) },
	}
}
