package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrBufferFull    = errors.New("send buffer full")
)

const defaultSendBufferSize = 64

// Channel is one open delivery path to one connected client. Write only
// enqueues; the transport that created the channel owns the wire and is the
// single goroutine writing to it.
type Channel interface {
	ID() string
	Write(payload []byte) error
	Close() error
	Closed() bool
	Done() <-chan struct{}
}

// sendQueue is the bounded outbound buffer shared by every transport. A full
// buffer is reported instead of blocking so one slow client cannot stall a
// broadcast.
type sendQueue struct {
	ch        chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

func newSendQueue(capacity int) *sendQueue {
	if capacity <= 0 {
		capacity = defaultSendBufferSize
	}
	return &sendQueue{
		ch:   make(chan []byte, capacity),
		done: make(chan struct{}),
	}
}

func (q *sendQueue) push(payload []byte) error {
	if q.closed.Load() {
		return ErrChannelClosed
	}
	select {
	case q.ch <- payload:
		return nil
	case <-q.done:
		return ErrChannelClosed
	default:
		return ErrBufferFull
	}
}

// close never closes q.ch, so a push racing with close cannot panic.
func (q *sendQueue) close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}

func (q *sendQueue) isClosed() bool {
	return q.closed.Load()
}
