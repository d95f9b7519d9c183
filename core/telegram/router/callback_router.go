package router

import (
	"log/slog"

	tg "github.com/m3rciful/schedulebot/core/telegram"
	"github.com/m3rciful/schedulebot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises callback routing.
type CallbackOptions struct {
	// NotFound is used when the registry has no not-found handler.
	NotFound tele.HandlerFunc
}

// answerTracker notes whether the handler answered the callback query.
type answerTracker struct {
	tele.Context
	answered *bool
}

func (a answerTracker) Respond(resp ...*tele.CallbackResponse) error {
	*a.answered = true
	return a.Context.Respond(resp...)
}

// CallbackRoute dispatches callback queries by their unique. A query the
// handler did not answer gets an empty answer so the client stops waiting.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = reg.CallbackNotFound()
			if h == nil {
				h = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
		}

		answered := false
		defer func() {
			if !answered {
				_ = c.Respond()
			}
		}()
		if h == nil {
			return nil
		}
		return run(answerTracker{Context: c, answered: &answered}, "callback."+handlerName(key), h, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
