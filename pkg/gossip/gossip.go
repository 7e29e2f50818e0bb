package gossip

import (
	"context"
	"sync"
	"time"
)

// Engine wraps a Process and owns the per-process ticking goroutine that
// drives Step. It holds no Transport: callers hand inbound messages to
// Process.Receive themselves, and outbound sends go through the Host's
// Resolve. See the package documentation for usage.
type Engine struct {
	Process *Process

	// OnRound, when set, is invoked synchronously on the ticking
	// goroutine immediately after each Step - the same goroutine that
	// owns Process's unsynchronized state, so it is safe for the hook to
	// call Process.Stats() or other single-goroutine accessors here.
	OnRound func(*Process)

	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs an Engine around a fresh Process.
func New(id ProcessID, cfg Config, host Host, initialView map[ProcessID]int, tickInterval time.Duration) (*Engine, error) {
	p, err := NewProcess(id, cfg, host, initialView)
	if err != nil {
		return nil, err
	}
	return &Engine{Process: p, interval: tickInterval}, nil
}

// Start spawns the ticking goroutine that drives Process.Step once per
// interval. Calling Start twice without an intervening Stop is a no-op.
func (e *Engine) Start() {
	if e.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg.Add(1)
	go e.run(ctx)
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Process.Step()
			if e.OnRound != nil {
				e.OnRound(e.Process)
			}
		}
	}
}

// Stop cancels the ticking goroutine and waits for it to exit.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	e.wg.Wait()
	e.cancel = nil
}
