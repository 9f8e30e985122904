package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"shoplist-service/internal/auth"
)

var errWriteFailed = errors.New("write failed")

// mockChannel records every payload written to it.
type mockChannel struct {
	id       string
	mu       sync.Mutex
	frames   [][]byte
	failWith error
	closed   atomic.Bool
	done     chan struct{}
	once     sync.Once
}

func newMockChannel(id string) *mockChannel {
	return &mockChannel{id: id, done: make(chan struct{})}
}

func (m *mockChannel) ID() string { return m.id }

func (m *mockChannel) Write(payload []byte) error {
	if m.closed.Load() {
		return ErrChannelClosed
	}
	if m.failWith != nil {
		return m.failWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, payload)
	return nil
}

func (m *mockChannel) Close() error {
	m.once.Do(func() {
		m.closed.Store(true)
		close(m.done)
	})
	return nil
}

func (m *mockChannel) Closed() bool          { return m.closed.Load() }
func (m *mockChannel) Done() <-chan struct{} { return m.done }

func (m *mockChannel) getFrames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.frames))
	for i, f := range m.frames {
		out[i] = string(f)
	}
	return out
}

// tokenAuthenticator maps fixed tokens to user ids.
type tokenAuthenticator map[string]uint

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (uint, error) {
	if token == "" {
		return 0, auth.ErrMissingCredential
	}
	id, ok := a[token]
	if !ok {
		return 0, auth.ErrInvalidCredential
	}
	return id, nil
}

// accessTable grants view access per "user:list" pair.
type accessTable struct {
	allowed map[string]bool
	err     error
}

func (a accessTable) CanView(_ context.Context, userID, listID uint) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.allowed[fmt.Sprintf("%d:%d", userID, listID)], nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ uint, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}
