package state

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore[string]()
	if _, ok := st.Get(1); ok {
		t.Fatalf("expected no session")
	}
	st.Set(1, "a")
	st.Set(2, "b")
	if v, ok := st.Get(1); !ok || v != "a" {
		t.Fatalf("unexpected session %q %v", v, ok)
	}
	st.Clear(1)
	if _, ok := st.Get(1); ok {
		t.Fatalf("session should be cleared")
	}
	if st.Len() != 1 {
		t.Fatalf("expected one session, got %d", st.Len())
	}
}

func TestLanesPreserveOrderPerKey(t *testing.T) {
	lanes := NewLanes()
	var mu sync.Mutex
	got := map[int64][]int{}

	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			lanes.Submit(key, func() {
				if i%7 == 0 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lanes.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, key := range []int64{1, 2, 3} {
		seq := got[key]
		if len(seq) != 50 {
			t.Fatalf("key %d: expected 50 jobs, got %d", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %d: job %d ran at position %d", key, v, i)
			}
		}
	}
}

func TestLanesNeverOverlapForOneKey(t *testing.T) {
	lanes := NewLanes()
	var mu sync.Mutex
	running, maxRunning := 0, 0
	for i := 0; i < 20; i++ {
		lanes.Submit(9, func() {
			mu.Lock()
			running++
			if running > maxRunning {
				maxRunning = running
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lanes.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if maxRunning != 1 {
		t.Fatalf("jobs for one key overlapped: %d", maxRunning)
	}
}

func TestLanesRunKeysConcurrently(t *testing.T) {
	lanes := NewLanes()
	release := make(chan struct{})
	done := make(chan struct{})

	lanes.Submit(1, func() { <-release })
	lanes.Submit(2, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("a blocked lane must not stall other keys")
	}
	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = lanes.Close(ctx)
}

func TestLanesSurvivePanicsAndIdleExit(t *testing.T) {
	lanes := NewLanes()
	ran := make(chan struct{})
	lanes.Submit(4, func() { panic("boom") })
	lanes.Submit(4, func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("job after a panic did not run")
	}
	deadline := time.Now().Add(2 * time.Second)
	for lanes.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle lane should exit")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := lanes.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if lanes.Submit(4, func() {}) {
		t.Fatalf("submit after close should be rejected")
	}
}
