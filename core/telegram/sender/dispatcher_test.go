package sender

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})
	var mu sync.Mutex
	got := map[int64][]int{}

	for i := 0; i < 30; i++ {
		for _, chat := range []int64{101, 202, -303} {
			i, chat := i, chat
			ctx := logger.WithUpdateMeta(context.Background(), i, chat, chat)
			err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
				if i%5 == 0 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}
	d.Close()

	for chat, seq := range got {
		if len(seq) != 30 {
			t.Fatalf("chat %d: expected 30 jobs, got %d", chat, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d: job %d ran at position %d", chat, v, i)
			}
		}
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected closed queue, got %v", err)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 0})
	_ = d.Enqueue(context.Background(), "edit.text", "editMessageText", func() error {
		return errors.New("bad request")
	})
	d.Close()
	if d.ErrorCount() != 1 {
		t.Fatalf("expected one failure, got %d", d.ErrorCount())
	}
}

func TestDispatcherRetriesServerErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls int
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls++
		if calls < 3 {
			return &tele.Error{Code: 502, Description: "Bad Gateway"}
		}
		return nil
	})
	d.Close()
	if calls != 3 || d.ErrorCount() != 0 {
		t.Fatalf("expected success on third call, got calls=%d failures=%d", calls, d.ErrorCount())
	}
}

func TestBackoffDecisions(t *testing.T) {
	d := &Dispatcher{opts: Options{MaxRetries: 2, RetryBackoff: time.Second}}
	if _, retry := d.backoff(tele.ErrBlockedByUser, 1); retry {
		t.Fatalf("client errors must not be retried")
	}
	if wait, retry := d.backoff(&tele.Error{Code: 500}, 2); !retry || wait != 2*time.Second {
		t.Fatalf("expected linear backoff, got %v %v", wait, retry)
	}
	if _, retry := d.backoff(&tele.Error{Code: 500}, 3); retry {
		t.Fatalf("retries must stop after MaxRetries")
	}
}

func TestRedactAndKind(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:AbC-d_e/sendMessage": EOF`)
	if got := redact(err); strings.Contains(got, "AbC") || !strings.Contains(got, "bot<redacted>") {
		t.Fatalf("token not redacted: %s", got)
	}
	if got := errorKind(&tele.Error{Code: 403}); got != "http_4xx" {
		t.Fatalf("errorKind = %s", got)
	}
	if got := errorKind(context.DeadlineExceeded); got != "timeout" {
		t.Fatalf("errorKind = %s", got)
	}
}
