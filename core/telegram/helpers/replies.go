package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

type replies struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// TrackReplies starts counting the messages sent or edited while handling
// the current update.
func TrackReplies(c tele.Context) {
	c.Set(repliesKey, &replies{})
}

// Replies reports how many messages were queued for the current update and
// whether any of them carried a keyboard.
func Replies(c tele.Context) (int, bool) {
	r, ok := c.Get(repliesKey).(*replies)
	if !ok {
		return 0, false
	}
	return int(r.messages.Load()), r.keyboard.Load()
}

func noteReply(c tele.Context, opts *tele.SendOptions) {
	r, ok := c.Get(repliesKey).(*replies)
	if !ok {
		return
	}
	r.messages.Add(1)
	if opts != nil && opts.ReplyMarkup != nil {
		r.keyboard.Store(true)
	}
}
