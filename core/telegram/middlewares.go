package telegram

import (
	"github.com/m3rciful/schedulebot/core/telegram/middleware"
	"github.com/m3rciful/schedulebot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots. When lanes
// is set, updates of one user are handled strictly one after another and
// onErr receives the errors those handlers return.
func DefaultMiddlewares(lanes *state.Lanes, onErr func(error, tele.Context)) []Middleware {
	var mws []Middleware
	if lanes != nil {
		mws = append(mws, Middleware{Name: "serialize", Use: state.Serialize(lanes, onErr)})
	}
	return append(mws,
		Middleware{Name: "recover", Use: middleware.RecoverMiddleware},
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
