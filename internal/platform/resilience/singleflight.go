package resilience

import (
	"context"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error

	waiters int
	cancel  context.CancelFunc
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	return g.DoContext(context.Background(), key, fn)
}

// DoContext is Do, except that a caller joining an in-flight call stops
// waiting when ctx is done. The in-flight call itself keeps running.
func (g *SingleFlight) DoContext(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}

	if c, ok := g.calls[key]; ok {
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			return nil, ctx.Err(), true
		}
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// DoShared runs fn once per key on a context detached from any single
// caller. Callers stop waiting when their own ctx is done; fn's context is
// cancelled only after every caller waiting on it has gone away.
func (g *SingleFlight) DoShared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	if err := ctx.Err(); err != nil {
		return nil, err, false
	}

	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if c, ok := g.calls[key]; ok && c.cancel != nil {
		c.waiters++
		g.mu.Unlock()
		return g.waitShared(ctx, key, c, true)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &call{done: make(chan struct{}), waiters: 1, cancel: cancel}
	g.calls[key] = c
	g.mu.Unlock()

	go func() {
		defer cancel()
		c.val, c.err = fn(runCtx)

		g.mu.Lock()
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	return g.waitShared(ctx, key, c, false)
}

// waitShared drops an abandoned call from the map so the next caller starts
// a fresh run instead of joining a cancelled one.
func (g *SingleFlight) waitShared(ctx context.Context, key string, c *call, shared bool) (any, error, bool) {
	select {
	case <-c.done:
		return c.val, c.err, shared
	case <-ctx.Done():
		g.mu.Lock()
		c.waiters--
		last := c.waiters == 0
		if last && g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		if last {
			c.cancel()
		}
		return nil, ctx.Err(), shared
	}
}
