package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的生命周期控制器。
type Handle struct {
	name string
	ctx  context.Context
	// Close tells the manager the service has stopped. Safe to call more than once.
	Close func()
}

// Name returns the name the service was registered under.
func (h *Handle) Name() string {
	return h.name
}

// Ctx returns a context cancelled when the manager shuts down.
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done is closed when the manager broadcasts shutdown.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Err reports why Done was closed.
func (h *Handle) Err() error {
	return h.ctx.Err()
}

// Sleep pauses for duration, returning early with the context error if the
// handle is cancelled. Background loops sleep through this instead of time.Sleep.
func (h *Handle) Sleep(duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-h.Done():
		return h.Err()
	case <-timer.C:
		return nil
	}
}
