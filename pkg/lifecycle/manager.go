package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/logger"
)

// Manager 协调一组后台服务的停机。
// 它由上层模块（shutdown）持有，并向各个后台服务分发句柄(Handle)。
type Manager struct {
	name     string
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a manager whose handles are cancelled together by Shutdown.
func NewManager(name string) *Manager {
	m := &Manager{
		name:     name,
		services: make(map[string]bool),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle registers a service under a unique name and returns its handle.
// The service must call Handle.Close before its goroutine exits.
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.services[name] {
		return nil, fmt.Errorf("lifecycle[%s]: service %q already registered", m.name, name)
	}
	m.services[name] = true
	m.wg.Add(1)
	logger.Infof("lifecycle[%s]: service [%s] registered", m.name, name)

	var once sync.Once
	return &Handle{
		name: name,
		ctx:  m.ctx,
		Close: func() {
			once.Do(func() {
				m.mu.Lock()
				defer m.mu.Unlock()
				delete(m.services, name)
				m.wg.Done()
			})
		},
	}, nil
}

// Go registers a service and runs fn on its own goroutine, closing the handle
// when fn returns.
func (m *Manager) Go(name string, fn func(h *Handle)) error {
	h, err := m.NewServiceHandle(name)
	if err != nil {
		return err
	}
	go func() {
		defer h.Close()
		fn(h)
	}()
	return nil
}

// Shutdown broadcasts the stop signal to every handle.
func (m *Manager) Shutdown() {
	logger.Infof("lifecycle[%s]: broadcasting shutdown", m.name)
	m.cancel()
}

// WaitWithTimeout waits for all registered services and returns the names of
// the ones still running when the timeout fires.
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	doneChan := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(doneChan)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-doneChan:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.remainingServices()
	}
}

func (m *Manager) remainingServices() []string {
	remaining := make([]string, 0, len(m.services))
	for name := range m.services {
		remaining = append(remaining, name)
	}
	sort.Strings(remaining)
	return remaining
}
