// Package workers contains code to manage the lifecycle of the
// background goroutines run by the agent: the per-metric sampling
// loops and the network scan loop.
package workers

import "sync"

// Manager coordinates the lifecycle of a set of cooperating workers.
// It owns the channel workers watch to learn they should leave and
// tracks them so shutdown can wait for stragglers. The zero value is
// invalid; use [NewManager].
type Manager struct {
	// shouldShutdown is closed to signal all workers to shut down.
	shouldShutdown chan any

	// shutdownOnce ensures we close shouldShutdown once.
	shutdownOnce sync.Once

	// wg tracks the running workers.
	wg sync.WaitGroup
}

// NewManager creates a new manager with no running workers.
func NewManager() *Manager {
	return &Manager{
		shouldShutdown: make(chan any),
	}
}

// StartWorker runs fx in a background goroutine tracked by the
// manager. The manager accounts for the worker terminating on its
// own, so fx only needs to honor [Manager.ShouldShutdown].
func (m *Manager) StartWorker(fx func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		fx()
	}()
}

// StartShutdown initiates the shutdown of all workers. Subsequent
// calls do nothing.
func (m *Manager) StartShutdown() {
	m.shutdownOnce.Do(func() {
		close(m.shouldShutdown)
	})
}

// ShouldShutdown returns the channel closed when workers should shut down.
func (m *Manager) ShouldShutdown() <-chan any {
	return m.shouldShutdown
}

// WaitWorkersShutdown blocks until all workers have shut down.
func (m *Manager) WaitWorkersShutdown() {
	m.wg.Wait()
}
