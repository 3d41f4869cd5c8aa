package analytics

import (
	"context"
	"log"
	"sync"
	"time"
)

// Recorder is what the table coordinator sees: a non-blocking event drop
// point. A nil *Service is a valid Recorder that discards everything.
type Recorder interface {
	Record(ev GameEvent)
}

// EventSink consumes game events; implementations are the Kafka producer,
// the ClickHouse store, the session sink, and test doubles.
type EventSink interface {
	WriteEvent(ctx context.Context, ev GameEvent) error
	Close() error
}

// ServiceConfig configures the analytics fan-out service.
type ServiceConfig struct {
	QueueSize    int
	WriteTimeout time.Duration
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		QueueSize:    1024,
		WriteTimeout: 5 * time.Second,
	}
}

// Service fans game events out to the configured sinks from a single
// worker goroutine. Recording never blocks gameplay: when the queue is
// full the event is dropped and counted.
type Service struct {
	config ServiceConfig
	sinks  []EventSink
	events chan GameEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewService creates a service over the given sinks. Nil sinks are
// skipped, so callers can pass optionally-constructed backends directly.
func NewService(config ServiceConfig, sinks ...EventSink) *Service {
	kept := make([]EventSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Service{
		config: config,
		sinks:  kept,
		events: make(chan GameEvent, config.QueueSize),
		stop:   make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop drains the queue and closes the sinks.
func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			log.Printf("analytics sink close error: %v", err)
		}
	}
}

// Record enqueues an event without blocking. Safe on a nil Service.
func (s *Service) Record(ev GameEvent) {
	if s == nil {
		return
	}
	select {
	case s.events <- ev:
		EventsRecorded.WithLabelValues(string(ev.EventType)).Inc()
	default:
		EventsDropped.Inc()
	}
}

func (s *Service) run() {
	defer s.wg.Done()
	for {
		select {
		case ev := <-s.events:
			s.dispatch(ev)
		case <-s.stop:
			// Drain whatever is already queued before shutting down.
			for {
				select {
				case ev := <-s.events:
					s.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) dispatch(ev GameEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	for _, sink := range s.sinks {
		if err := sink.WriteEvent(ctx, ev); err != nil {
			SinkErrors.WithLabelValues(sinkName(sink)).Inc()
			log.Printf("analytics sink write error: %v", err)
		}
	}
}

// sinkName returns a stable label for metrics.
func sinkName(sink EventSink) string {
	if n, ok := sink.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}
