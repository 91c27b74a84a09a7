// Package subscription runs background producers and coalesces their
// updates into batches.
//
// Producers never touch daemon state. They push values through a Sender;
// the hub buffers them and hands ordered batches to a deliver function,
// either when the reload interval elapses or when a producer sends an
// immediate update.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCapacity bounds the channel between producers and the hub.
const DefaultCapacity = 64

var (
	ErrStarted     = errors.New("subscription hub already running")
	ErrNilProducer = errors.New("subscription producer is nil")
)

// Producer runs until it has nothing more to send or ctx is done.
type Producer[T any] func(ctx context.Context, tx Sender[T]) error

type envelope[T any] struct {
	value     T
	immediate bool
}

// Sender is the send half handed to a producer.
type Sender[T any] struct {
	ch chan<- envelope[T]
}

// Buffered queues v for the next flush.
func (s Sender[T]) Buffered(ctx context.Context, v T) error {
	return s.send(ctx, envelope[T]{value: v})
}

// Immediate queues v and forces a flush of everything buffered so far.
func (s Sender[T]) Immediate(ctx context.Context, v T) error {
	return s.send(ctx, envelope[T]{value: v, immediate: true})
}

func (s Sender[T]) send(ctx context.Context, e envelope[T]) error {
	select {
	case s.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hub owns the producers and the coalescing loop.
type Hub[T any] struct {
	interval  time.Duration
	capacity  int
	deliver   func([]T)
	producers []namedProducer[T]
	started   bool
	mu        sync.Mutex
}

type namedProducer[T any] struct {
	name string
	run  Producer[T]
}

// New creates a hub that flushes every interval. deliver is called from
// the hub goroutine with a batch it no longer references.
func New[T any](interval time.Duration, capacity int, deliver func([]T)) *Hub[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub[T]{interval: interval, capacity: capacity, deliver: deliver}
}

// Add registers a producer. It must be called before Run.
func (h *Hub[T]) Add(name string, p Producer[T]) error {
	if p == nil {
		return fmt.Errorf("%w: %s", ErrNilProducer, name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return ErrStarted
	}
	h.producers = append(h.producers, namedProducer[T]{name: name, run: p})
	return nil
}

// Run starts every producer and coalesces until all of them have returned
// (nil) or ctx is cancelled (ctx.Err()).
func (h *Hub[T]) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return ErrStarted
	}
	h.started = true
	producers := h.producers
	h.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan envelope[T], h.capacity)
	var wg sync.WaitGroup
	for _, p := range producers {
		wg.Add(1)
		go func(p namedProducer[T]) {
			defer wg.Done()
			if err := p.run(ctx, Sender[T]{ch: ch}); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Subscription producer failed", "subscription", p.name, "error", err)
				return
			}
			slog.Debug("Subscription finished", "subscription", p.name)
		}(p)
	}
	// Closing ch once every producer returned is what ends the loop.
	go func() {
		wg.Wait()
		close(ch)
	}()

	return h.coalesce(ctx, ch)
}

func (h *Hub[T]) coalesce(ctx context.Context, ch <-chan envelope[T]) error {
	var tick <-chan time.Time
	if h.interval > 0 {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var buf []T
	flush := func() {
		if len(buf) == 0 {
			return
		}
		batch := buf
		buf = nil
		h.deliver(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-ch:
			if !ok {
				flush()
				slog.Debug("All subscriptions finished")
				return nil
			}
			buf = append(buf, e.value)
			if e.immediate {
				flush()
			}
		case <-tick:
			flush()
		}
	}
}
