package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openstudio/director-go/internal/logging"
)

// Bus provides asynchronous switch event processing with non-blocking
// publish guarantees.
type Bus struct {
	eventChan chan SwitchEvent

	bufferSize int
	workers    int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	mu        sync.RWMutex
	consumers []Consumer

	eventsReceived  atomic.Uint64
	eventsProcessed atomic.Uint64
	eventsDropped   atomic.Uint64
	consumerErrors  atomic.Uint64

	logger *slog.Logger
}

// Config holds event bus configuration.
type Config struct {
	BufferSize int
	Workers    int
}

// DefaultConfig returns the default event bus configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferSize: 1024,
		Workers:    2,
	}
}

// NewBus creates a new event bus. Start must be called before events are
// delivered to consumers.
func NewBus(config *Config) *Bus {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.ForService("events")
	if logger == nil {
		logger = slog.Default().With("service", "events")
	}
	return &Bus{
		eventChan:  make(chan SwitchEvent, config.BufferSize),
		bufferSize: config.BufferSize,
		workers:    config.Workers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// RegisterConsumer adds a consumer to the bus. Consumers registered after
// Start still receive subsequent events.
func (b *Bus) RegisterConsumer(consumer Consumer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consumers = append(b.consumers, consumer)
	b.logger.Info("event consumer registered", "consumer", consumer.Name())
}

// Start launches the worker goroutines that deliver events to consumers.
func (b *Bus) Start() {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	b.logger.Info("event bus started", "buffer_size", b.bufferSize, "workers", b.workers)
}

// Publish submits an event for asynchronous delivery. It never blocks: if
// the buffer is full the event is dropped and counted in the bus stats.
func (b *Bus) Publish(event SwitchEvent) {
	if event == nil || !b.running.Load() {
		return
	}
	b.eventsReceived.Add(1)
	select {
	case b.eventChan <- event:
	default:
		b.eventsDropped.Add(1)
		b.logger.Warn("event bus buffer full, dropping event",
			"session_id", event.GetSessionID(),
			"event_id", event.GetEventID())
	}
}

// Shutdown stops the workers after draining buffered events, waiting at most
// the given timeout. The event channel is never closed: a publisher racing
// the shutdown at worst enqueues an event that is not delivered, it can never
// panic on a closed channel.
func (b *Bus) Shutdown(timeout time.Duration) {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		b.logger.Warn("event bus shutdown timed out", "timeout", timeout)
	}
	b.logger.Info("event bus stopped", "processed", b.eventsProcessed.Load(), "dropped", b.eventsDropped.Load())
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() BusStats {
	return BusStats{
		EventsReceived:  b.eventsReceived.Load(),
		EventsProcessed: b.eventsProcessed.Load(),
		EventsDropped:   b.eventsDropped.Load(),
		ConsumerErrors:  b.consumerErrors.Load(),
	}
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		case <-b.ctx.Done():
			b.drain()
			return
		}
	}
}

// drain delivers events still buffered at shutdown, then returns.
func (b *Bus) drain() {
	for {
		select {
		case event := <-b.eventChan:
			b.dispatch(event)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(event SwitchEvent) {
	b.mu.RLock()
	consumers := b.consumers
	b.mu.RUnlock()

	for _, consumer := range consumers {
		if err := consumer.ProcessEvent(event); err != nil {
			b.consumerErrors.Add(1)
			b.logger.Error("event consumer failed",
				"consumer", consumer.Name(),
				"event_id", event.GetEventID(),
				"error", err)
		}
	}
	b.eventsProcessed.Add(1)
}
