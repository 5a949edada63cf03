// Package bus is the asynchronous message channel between the foreground
// controller and the background scheduler. The two contexts share no memory;
// everything crossing the boundary goes through here.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultBuffer bounds each direction's in-flight messages.
	DefaultBuffer = 64

	// DefaultReadyGrace is how long a send to a not-yet-ready background
	// context waits before the message is dropped. One wait, no further
	// retries; a full resync repairs any drop.
	DefaultReadyGrace = 2 * time.Second
)

// Bus carries messages in both directions. Sends never fail hard: a message
// that cannot be delivered is dropped with a warning, never an error to the
// caller.
type Bus struct {
	toBackground chan Message
	toForeground chan Message

	ready      chan struct{}
	readyOnce  sync.Once
	readyGrace time.Duration

	disabled bool

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a bus with the given per-direction buffer.
func New(buffer int, readyGrace time.Duration) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if readyGrace <= 0 {
		readyGrace = DefaultReadyGrace
	}

	return &Bus{
		toBackground: make(chan Message, buffer),
		toForeground: make(chan Message, buffer),
		ready:        make(chan struct{}),
		readyGrace:   readyGrace,
		closed:       make(chan struct{}),
	}
}

// NewDisabled creates a bus for environments with no background execution
// context. Every send is a silent no-op; the system degrades to
// foreground-only reminders.
func NewDisabled() *Bus {
	b := New(1, time.Millisecond)
	b.disabled = true
	return b
}

// Disabled reports whether the background context is unavailable.
func (b *Bus) Disabled() bool {
	return b.disabled
}

// SignalReady marks the background context as consuming. Idempotent.
func (b *Bus) SignalReady() {
	b.readyOnce.Do(func() {
		close(b.ready)
	})
}

// Ready reports whether the background context has signalled readiness.
func (b *Bus) Ready() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// SendToBackground delivers a message to the background context. If the
// context has not signalled ready yet, the send waits once up to the ready
// grace, then gives up silently.
func (b *Bus) SendToBackground(ctx context.Context, msg Message) {
	if b.disabled {
		slog.DebugContext(ctx, "background context unavailable, dropping message",
			slog.String("kind", string(msg.Kind())),
		)
		return
	}

	if !b.Ready() {
		timer := time.NewTimer(b.readyGrace)
		defer timer.Stop()

		select {
		case <-b.ready:
		case <-timer.C:
			slog.WarnContext(ctx, "background context not ready, dropping message",
				slog.String("kind", string(msg.Kind())),
				slog.Duration("waited", b.readyGrace),
			)
			return
		case <-ctx.Done():
			return
		case <-b.closed:
			return
		}
	}

	select {
	case b.toBackground <- msg:
	case <-b.closed:
	default:
		slog.WarnContext(ctx, "background channel full, dropping message",
			slog.String("kind", string(msg.Kind())),
		)
	}
}

// SendToForeground delivers a message to the foreground context without
// blocking the background caller.
func (b *Bus) SendToForeground(msg Message) {
	if b.disabled {
		return
	}

	select {
	case b.toForeground <- msg:
	case <-b.closed:
	default:
		slog.Warn("foreground channel full, dropping message",
			slog.String("kind", string(msg.Kind())),
		)
	}
}

// Background is the channel the background scheduler consumes.
func (b *Bus) Background() <-chan Message {
	return b.toBackground
}

// Foreground is the channel the foreground reconciler consumes.
func (b *Bus) Foreground() <-chan Message {
	return b.toForeground
}

// Close stops delivery in both directions. Consumers see their channels
// drain; in-flight sends become no-ops.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
	})
}
