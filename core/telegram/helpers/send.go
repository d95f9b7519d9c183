package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/schedulebot/core/logger"
	"github.com/m3rciful/schedulebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes SendText and EditText through d; nil makes them
// synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// enqueue hands call to the dispatcher. A full or closed queue degrades to
// a synchronous call so the reply is not lost.
func enqueue(c tele.Context, action, endpoint string, call func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return call()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, call)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return call()
	default:
		return err
	}
}

func sendArgs(opts *tele.SendOptions) []any {
	if opts == nil {
		return nil
	}
	return []any{opts}
}

// SendText sends plain text, no parse mode, to the update's chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	o := first(opts)
	noteReply(c, o)
	return enqueue(c, "send.text", "sendMessage", func() error {
		return c.Send(text, sendArgs(o)...)
	})
}

// EditText replaces the text of the message the update refers to. Edits
// share the queue with sends, so their relative order is kept. Editing to
// identical content is not an error.
func EditText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	o := first(opts)
	noteReply(c, o)
	return enqueue(c, "edit.text", "editMessageText", func() error {
		err := c.Edit(text, sendArgs(o)...)
		if errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		return err
	})
}

func first(opts []*tele.SendOptions) *tele.SendOptions {
	if len(opts) == 0 {
		return nil
	}
	return opts[0]
}

// Markup wraps rm into send options; nil stays nil.
func Markup(rm *tele.ReplyMarkup) *tele.SendOptions {
	if rm == nil {
		return nil
	}
	return &tele.SendOptions{ReplyMarkup: rm}
}
