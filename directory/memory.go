package directory

import (
	"context"
	"sync"

	"partywire/protocol"
)

// MemoryDirectory is a Directory for a single process.
type MemoryDirectory struct {
	mu       sync.Mutex
	sessions map[string]protocol.ControllerSet
	watchers map[chan protocol.Statistics]struct{}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		sessions: make(map[string]protocol.ControllerSet),
		watchers: make(map[chan protocol.Statistics]struct{}),
	}
}

func (m *MemoryDirectory) Publish(ctx context.Context, sessionID string, controllers protocol.ControllerSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = protocol.NewControllerSet(controllers.Sorted()...)
	m.notify()
	return nil
}

func (m *MemoryDirectory) Remove(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return nil
	}
	delete(m.sessions, sessionID)
	m.notify()
	return nil
}

func (m *MemoryDirectory) Snapshot(ctx context.Context) (protocol.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(), nil
}

func (m *MemoryDirectory) Watch(ctx context.Context) <-chan protocol.Statistics {
	ch := make(chan protocol.Statistics, 1)
	m.mu.Lock()
	m.watchers[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, ch)
		close(ch)
		m.mu.Unlock()
	}()
	return ch
}

// snapshot must be called with mu held.
func (m *MemoryDirectory) snapshot() protocol.Statistics {
	tree := make(map[string]protocol.ControllerSet, len(m.sessions))
	for id, set := range m.sessions {
		tree[id] = protocol.NewControllerSet(set.Sorted()...)
	}
	return protocol.Statistics{Tree: tree}
}

// notify must be called with mu held. A watcher that has not taken the
// previous snapshot gets it replaced by the newest one.
func (m *MemoryDirectory) notify() {
	for ch := range m.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- m.snapshot()
	}
}
