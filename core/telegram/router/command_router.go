// Package router turns a Registry into telebot routes. Every route logs a
// handler summary; the shared middleware is installed globally.
package router

import (
	"log/slog"

	"github.com/m3rciful/schedulebot/core/logger"
	tg "github.com/m3rciful/schedulebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes returns one route per registered command.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for key, cmd := range cmds {
		name, h := handlerName(key), cmd.Handler
		routes = append(routes, tg.Route{
			Endpoint: key,
			Handler:  func(c tele.Context) error { return run(c, name, h) },
		})
	}

	logger.LogEvent(logger.Background(), logger.TWire, slog.LevelInfo, "complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
