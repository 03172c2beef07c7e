package hub

import (
	"context"
	"errors"
	"sync"
)

// ErrChannelClosed is returned by channel operations after Close.
var ErrChannelClosed = errors.New("channel closed")

// MessageChannel is a bounded handoff buffer between one producer side and
// one consumer side. Send blocks until there is room; Offer never blocks,
// dropping the oldest buffered item instead when the buffer is full.
type MessageChannel[T any] struct {
	channel chan T
	done    chan struct{}
	once    sync.Once

	mu sync.Mutex // serializes Offer against Close
}

// NewMessageChannel creates a MessageChannel with the given capacity.
// A non-positive capacity is treated as 1.
func NewMessageChannel[T any](capacity int) *MessageChannel[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &MessageChannel[T]{
		channel: make(chan T, capacity),
		done:    make(chan struct{}),
	}
}

// Send delivers message, blocking until buffer space is available, the
// context ends, or the channel is closed.
func (mc *MessageChannel[T]) Send(ctx context.Context, message T) error {
	select {
	case <-mc.done:
		return ErrChannelClosed
	default:
	}

	select {
	case mc.channel <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-mc.done:
		return ErrChannelClosed
	}
}

// Offer delivers message without blocking. When the buffer is full the
// oldest buffered item is discarded to make room. It reports whether the
// message was accepted (false only after Close) and whether an older item
// was dropped.
func (mc *MessageChannel[T]) Offer(message T) (ok, dropped bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	select {
	case <-mc.done:
		return false, false
	default:
	}

	for {
		select {
		case mc.channel <- message:
			return true, dropped
		default:
		}

		select {
		case <-mc.channel:
			dropped = true
		default:
			// Consumer drained the buffer between our two selects; retry.
		}
	}
}

// Receive returns the next buffered message, blocking until one arrives,
// the context ends, or the channel is closed and drained.
func (mc *MessageChannel[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case message := <-mc.channel:
		return message, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-mc.done:
		// Drain what was buffered before the close.
		select {
		case message := <-mc.channel:
			return message, nil
		default:
			return zero, ErrChannelClosed
		}
	}
}

// Close releases both sides. Idempotent.
func (mc *MessageChannel[T]) Close() {
	mc.once.Do(func() {
		mc.mu.Lock()
		defer mc.mu.Unlock()
		close(mc.done)
	})
}

// Done returns a channel closed when the MessageChannel is closed.
func (mc *MessageChannel[T]) Done() <-chan struct{} {
	return mc.done
}

// QueueLength returns the current number of buffered messages.
func (mc *MessageChannel[T]) QueueLength() int {
	return len(mc.channel)
}
