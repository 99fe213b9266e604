package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// flushTimeout bounds each publish made after the start context is done.
const flushTimeout = 5 * time.Second

// Collector buffers events and publishes them from a single goroutine.
// Track never blocks; events are dropped when the buffer is full or the
// collector is closed.
type Collector struct {
	publisher Publisher
	eventCh   chan kafka.Event
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	started   atomic.Bool
	dropped   atomic.Int64
	logger    *slog.Logger
}

func NewCollector(p Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: p,
		eventCh:   make(chan kafka.Event, bufferSize),
		done:      make(chan struct{}),
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// Start runs the publish loop until Close is called. Once ctx is done the
// loop keeps draining, publishing each remaining event with a fresh context
// bounded by flushTimeout.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(c.done)
		for event := range c.eventCh {
			c.publish(ctx, event)
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

func (c *Collector) publish(ctx context.Context, event kafka.Event) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Error("failed to publish analytics event", "key", event.Key, "error", err)
	}
}

func (c *Collector) TrackSearch(e SearchEvent) {
	c.track(kafka.Event{Key: e.Field, Value: e})
}

func (c *Collector) track(event kafka.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.dropped.Add(1)
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

func (c *Collector) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for the buffer to drain. Later
// Track calls count as dropped.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	if c.started.Load() {
		<-c.done
	}
}
