package sync

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Manager runs every registered Watcher concurrently and returns once all
// of them have stopped (normally because ctx was cancelled during
// shutdown).
type Manager struct {
	watchers []*Watcher
}

// NewManager builds a Manager over the given watchers.
func NewManager(watchers ...*Watcher) *Manager {
	return &Manager{watchers: watchers}
}

// Run starts every watcher in its own goroutine via an errgroup, so the
// first watcher to return an unrecoverable error cancels the rest.
func (m *Manager) Run(ctx context.Context) error {
	eg, groupCtx := errgroup.WithContext(ctx)
	for _, w := range m.watchers {
		w := w
		eg.Go(func() error {
			return w.Run(groupCtx)
		})
	}
	return eg.Wait()
}
