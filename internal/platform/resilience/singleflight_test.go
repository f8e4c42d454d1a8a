package resilience

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_Do(t *testing.T) {
	var g SingleFlight
	var counter int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err, _ := g.Do("token-key", func() (any, error) {
				atomic.AddInt32(&counter, 1)
				time.Sleep(20 * time.Millisecond)
				return "ok", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&counter); got != 1 {
		t.Fatalf("expected function to run once, got %d", got)
	}
}

func TestSingleFlight_DoContextStopsWaiting(t *testing.T) {
	var g SingleFlight
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _, _ = g.Do("recalculate", func() (any, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err, shared := g.DoContext(ctx, "recalculate", func() (any, error) {
		t.Errorf("joined call must not run fn")
		return nil, nil
	})
	close(release)

	if !shared {
		t.Fatalf("expected call to join the in-flight one")
	}
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func waitForWaiters(t *testing.T, g *SingleFlight, key string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		c, ok := g.calls[key]
		n := 0
		if ok {
			n = c.waiters
		}
		g.mu.Unlock()
		if n == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d waiters on %q", want, key)
}

func TestSingleFlight_DoSharedOutlivesLeader(t *testing.T) {
	var g SingleFlight
	release := make(chan struct{})
	started := make(chan struct{})
	runErr := make(chan error, 1)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err, _ := g.DoShared(leaderCtx, "recalculate:all", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			runErr <- ctx.Err()
			return "ok", nil
		})
		leaderDone <- err
	}()
	<-started

	type outcome struct {
		val    any
		err    error
		shared bool
	}
	joinerDone := make(chan outcome, 1)
	go func() {
		val, err, shared := g.DoShared(context.Background(), "recalculate:all", func(context.Context) (any, error) {
			t.Errorf("joined call must not run fn")
			return nil, nil
		})
		joinerDone <- outcome{val: val, err: err, shared: shared}
	}()
	waitForWaiters(t, &g, "recalculate:all", 2)

	cancelLeader()
	if err := <-leaderDone; err != context.Canceled {
		t.Fatalf("leader err=%v, want context.Canceled", err)
	}

	close(release)
	got := <-joinerDone
	if got.err != nil || got.val != "ok" || !got.shared {
		t.Fatalf("unexpected joiner outcome: %+v", got)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("shared run was cancelled: %v", err)
	}
}

func TestSingleFlight_DoSharedCancelsWhenEveryoneLeaves(t *testing.T) {
	var g SingleFlight
	cancelled := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err, _ := g.DoShared(ctx, "recalculate:all", func(runCtx context.Context) (any, error) {
			<-runCtx.Done()
			close(cancelled)
			return nil, runCtx.Err()
		})
		done <- err
	}()
	waitForWaiters(t, &g, "recalculate:all", 1)

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("run context was not cancelled after the last waiter left")
	}
}

func TestSingleFlight_DoSharedCancelledBeforeStart(t *testing.T) {
	var g SingleFlight
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err, shared := g.DoShared(ctx, "recalculate:all", func(context.Context) (any, error) {
		t.Errorf("fn must not run for a cancelled caller")
		return nil, nil
	})
	if err != context.Canceled || shared {
		t.Fatalf("err=%v shared=%v", err, shared)
	}
}
