package state

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m3rciful/schedulebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Lanes runs jobs one at a time per key, in submission order. Different
// keys run concurrently. A lane's goroutine exits once its queue drains.
type Lanes struct {
	mu     sync.Mutex
	queues map[int64][]func()
	closed bool
	wg     sync.WaitGroup
}

// NewLanes returns an empty lane set.
func NewLanes() *Lanes {
	return &Lanes{queues: make(map[int64][]func())}
}

// Submit queues job on the lane for key. It reports false after Close.
func (l *Lanes) Submit(key int64, job func()) bool {
	if job == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	queue, active := l.queues[key]
	l.queues[key] = append(queue, job)
	if !active {
		l.wg.Add(1)
		go l.drain(key)
	}
	return true
}

// Active reports how many lanes currently have a running goroutine.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queues)
}

// Close stops accepting jobs and waits for queued ones until ctx is done.
func (l *Lanes) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Lanes) drain(key int64) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		queue := l.queues[key]
		if len(queue) == 0 {
			delete(l.queues, key)
			l.mu.Unlock()
			return
		}
		job := queue[0]
		queue[0] = nil
		l.queues[key] = queue[1:]
		l.mu.Unlock()

		runJob(key, job)
	}
}

func runJob(key int64, job func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(logger.Background(), "tg", "lane.panic",
				slog.Int64("user_id", key),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	job()
}

// Serialize hands every update to the sender's lane and returns at once.
// Updates without a sender run inline. onErr receives handler errors that
// can no longer be returned to the bot.
func Serialize(lanes *Lanes, onErr func(error, tele.Context)) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if lanes == nil || user == nil {
				return next(c)
			}
			accepted := lanes.Submit(user.ID, func() {
				if err := next(c); err != nil && onErr != nil {
					onErr(err, c)
				}
			})
			if !accepted {
				logger.Warn(logger.Background(), "tg", "lane.rejected",
					slog.String("status", "skip"),
					slog.Int64("user_id", user.ID),
				)
			}
			return nil
		}
	}
}
