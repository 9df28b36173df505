package hub

import (
	"context"
	"errors"
	"sync"

	"streamgate/internal/model"
)

// ErrSinkClosed is returned by a closed ChannelSink. The hub treats it like
// any other delivery failure and drops the subscriber.
var ErrSinkClosed = errors.New("sink closed")

// ChannelSink adapts a Go channel to the Sink interface for in-process
// consumers. Delivery blocks until the consumer drains the channel or the
// broadcast's send timeout expires.
type ChannelSink struct {
	ch chan model.Event

	mu     sync.Mutex
	closed bool
}

// NewChannelSink creates a channel sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{
		ch: make(chan model.Event, buffer),
	}
}

// Events returns the channel consumers receive from.
func (s *ChannelSink) Events() <-chan model.Event {
	return s.ch
}

// Deliver implements Sink.
func (s *ChannelSink) Deliver(ctx context.Context, ev model.Event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the sink closed. Subsequent deliveries fail, which causes the
// hub to drop the subscriber on its next broadcast.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, ev model.Event) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, ev model.Event) error {
	return f(ctx, ev)
}
