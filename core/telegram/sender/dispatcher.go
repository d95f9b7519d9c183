// Package sender runs outbound Bot API calls off the update path. Calls for
// one chat keep their order; calls for different chats run in parallel.
package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/schedulebot/core/logger"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's shard has no room left.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes a Dispatcher; zero values take defaults.
type Options struct {
	// QueueSize bounds the pending calls of each shard.
	QueueSize int
	// Workers is the number of shards. Each shard has one worker.
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one call including retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type call struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher shards calls by chat id over a fixed set of single-worker
// queues.
type Dispatcher struct {
	opts   Options
	queues []chan call

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	failed atomic.Uint64
	rr     atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, queues: make([]chan call, opts.Workers)}
	for i := range d.queues {
		q := make(chan call, opts.QueueSize)
		d.queues[i] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for c := range q {
				d.execute(c)
			}
		}()
	}
	return d
}

// Enqueue schedules run. It never blocks: a saturated shard yields
// ErrQueueFull and the caller decides what to do. run may be called more
// than once when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queueFor(logger.ChatIDFrom(ctx)) <- call{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Calls without a chat are spread round-robin.
func (d *Dispatcher) queueFor(chatID int64) chan call {
	n := uint64(len(d.queues))
	if chatID == 0 {
		return d.queues[d.rr.Add(1)%n]
	}
	if chatID < 0 {
		chatID = -chatID
	}
	return d.queues[uint64(chatID)%n]
}

// ErrorCount is the number of calls that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close rejects new calls and waits until the queued ones have run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
