package logger

import (
	"bufio"
	"io"
	"sync"
)

// asyncWriter moves log output off the caller's goroutine. Lines are
// written in order and the buffer is flushed whenever the queue runs dry.
type asyncWriter struct {
	lines chan []byte
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	out      *bufio.Writer
	errMu    sync.Mutex
	writeErr error
}

func newAsyncWriter(sinks []io.Writer, bufSize int) *asyncWriter {
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		done:  make(chan struct{}),
		out:   bufio.NewWriterSize(io.MultiWriter(live...), max(bufSize, 4096)),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for line := range w.lines {
		if _, err := w.out.Write(line); err != nil {
			w.fail(err)
		}
		if len(w.lines) == 0 {
			if err := w.out.Flush(); err != nil {
				w.fail(err)
			}
		}
	}
	if err := w.out.Flush(); err != nil {
		w.fail(err)
	}
}

// Write queues a copy of p. After Close it drops the line.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil
	}
	w.lines <- line
	return nil
}

// Close drains queued lines and returns the first sink error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.err()
}

func (w *asyncWriter) fail(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.writeErr == nil {
		w.writeErr = err
	}
}

func (w *asyncWriter) err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.writeErr
}
