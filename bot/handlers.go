package bot

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/schedulebot/core/telegram/helpers"
	"github.com/m3rciful/schedulebot/core/telegram/keyboard"
	"github.com/m3rciful/schedulebot/core/telegram/ui"
	"github.com/m3rciful/schedulebot/schedule/dialog"

	tele "gopkg.in/telebot.v4"
)

const (
	inlineLimit     = 50
	inlineCacheTime = 60
	inlineHint      = "Отправить ФИО преподавателя"

	helpText = "Введите фамилию преподавателя, выберите неделю и день, " +
		"и бот покажет расписание.\n\n" +
		"Кнопки «Сегодня» и «Завтра» сразу показывают нужный день, «Назад» возвращает на шаг назад.\n" +
		"В любом чате можно набрать @имя_бота и фамилию, чтобы вставить ФИО преподавателя."
)

var _ ui.FallbackProvider = (*App)(nil)

func (a *App) onStart(c tele.Context) error {
	return a.dispatch(c, dialog.Start())
}

func (a *App) onHelp(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

func (a *App) onText(c tele.Context) error {
	return a.dispatch(c, dialog.Text(c.Text()))
}

func (a *App) onCallback(action string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ev, err := callbackEvent(action, c)
		if err != nil {
			logger.Debug(tghelpers.BuildContext(c), "dialog", "callback.invalid",
				slog.String("status", "skip"),
				slog.String("cb_key", action),
				slog.String("err", err.Error()),
			)
			return c.Respond(&tele.CallbackResponse{Text: dialog.TextInvalid})
		}
		return a.dispatch(c, ev)
	}
}

// callbackEvent maps a button tap back to a dialog event.
func callbackEvent(action string, c tele.Context) (dialog.Event, error) {
	switch action {
	case dialog.ActionToday:
		return dialog.Today(), nil
	case dialog.ActionTomorrow:
		return dialog.Tomorrow(), nil
	case dialog.ActionBack:
		return dialog.Back(), nil
	}
	n, err := callbacks.PayloadInt(c)
	if err != nil {
		return dialog.Event{}, fmt.Errorf("bad %s payload: %w", action, err)
	}
	switch action {
	case dialog.ActionTeacher:
		return dialog.Choose(n), nil
	case dialog.ActionWeek:
		return dialog.PickWeek(n), nil
	case dialog.ActionDay:
		return dialog.PickDay(n), nil
	}
	return dialog.Event{}, fmt.Errorf("unknown action %q", action)
}

func (a *App) dispatch(c tele.Context, ev dialog.Event) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	out := a.machine.Handle(tghelpers.BuildContext(c), user.ID, ev)
	return deliver(c, out)
}

// deliver answers the tapped button, then sends the messages in order.
// Messages marked Edit replace the message that carried the button.
func deliver(c tele.Context, out dialog.Output) error {
	if c.Callback() != nil {
		if err := c.Respond(&tele.CallbackResponse{Text: out.Notice}); err != nil {
			logger.Warn(tghelpers.BuildContext(c), "tg", "callback.respond",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
	for _, msg := range out.Messages {
		opts := tghelpers.Markup(markup(msg.Keyboard))
		var err error
		if msg.Edit && c.Callback() != nil {
			err = tghelpers.EditText(c, msg.Text, opts)
		} else {
			err = tghelpers.SendText(c, msg.Text, opts)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func markup(kb [][]dialog.Button) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := keyboard.Rows(kb, func(b dialog.Button) keyboard.InlineBtn {
		return keyboard.InlineBtn{Text: b.Label, Unique: b.Action, Data: b.Payload}
	})
	return keyboard.InlineButtonsRows(rows...)
}

// onQuery answers inline queries with matching teacher names; picking a
// result inserts the name as a message.
func (a *App) onQuery(c tele.Context) error {
	q := c.Query()
	if q == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	cands, err := a.resolver.InlineCandidates(ctx, q.Text, inlineLimit)
	if err != nil {
		logger.Warn(ctx, "schedule.resolver", "inline.search",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	results := make(tele.Results, 0, len(cands))
	for _, cand := range cands {
		results = append(results, ui.Article(uuid.NewString(), cand.Name, cand.Name, inlineHint))
	}
	return c.Answer(&tele.QueryResponse{Results: results, CacheTime: inlineCacheTime})
}

// UnknownCommand replies to slash commands the bot does not know.
func (a *App) UnknownCommand() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, dialog.TextInvalid)
	}
}

// UnknownCallback answers taps on buttons the bot no longer handles.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: dialog.TextInvalid})
	}
}

// onLaneError logs handler errors that surface after the update was queued.
func (a *App) onLaneError(err error, c tele.Context) {
	logger.Error(tghelpers.BuildContext(c), "tg", "handler.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
