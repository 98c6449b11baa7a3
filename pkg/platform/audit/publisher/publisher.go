// Package publisher delivers audit events to one or more sinks without ever
// blocking or failing the caller.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "civicproof/pkg/platform/audit"
	"civicproof/pkg/platform/audit/worker"
)

const defaultSinkTimeout = 5 * time.Second

type namedSink struct {
	name    string
	sink    audit.Sink
	breaker *sinkBreaker
}

// Publisher implements audit.Recorder. With an async buffer, Record enqueues and a
// background worker fans events out to every sink; when the buffer is full the
// event is dropped and counted. Without a buffer, delivery happens inline but
// errors are still swallowed.
type Publisher struct {
	sinks       []*namedSink
	logger      *slog.Logger
	metrics     *Metrics
	sinkTimeout time.Duration

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}

	mu     sync.RWMutex
	closed bool

	breakerThreshold int
	breakerCooldown  time.Duration
}

type Option func(*Publisher)

// WithSink adds a named destination. Sinks receive every event.
func WithSink(name string, sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, &namedSink{name: name, sink: sink})
		}
	}
}

func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.bufferSize = size }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithSinkTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.sinkTimeout = d
		}
	}
}

// WithCircuitBreaker configures per-sink failure isolation.
func WithCircuitBreaker(threshold int, cooldown time.Duration) Option {
	return func(p *Publisher) {
		p.breakerThreshold = threshold
		p.breakerCooldown = cooldown
	}
}

func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		logger:      slog.Default(),
		sinkTimeout: defaultSinkTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, s := range p.sinks {
		s.breaker = newSinkBreaker(p.breakerThreshold, p.breakerCooldown)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(p.inbox, p.deliver)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Record stamps and enqueues an event. It never blocks on sinks and never fails.
func (p *Publisher) Record(ctx context.Context, event audit.Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Device == "" {
		event.Device = audit.DescribeUserAgent(event.UserAgent)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.incDropped("closed")
		p.logger.WarnContext(ctx, "audit publisher closed, event dropped",
			"action", event.Action,
			"report_id", event.ReportID,
		)
		return
	}
	p.metrics.incRecorded(string(event.Action))

	if p.inbox == nil {
		p.deliver(context.WithoutCancel(ctx), event)
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.metrics.incDropped("buffer_full")
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"report_id", event.ReportID,
			"request_id", event.RequestID,
		)
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) {
	for _, s := range p.sinks {
		if !s.breaker.Allow() {
			p.metrics.incDropped("circuit_open")
			continue
		}
		sinkCtx, cancel := context.WithTimeout(ctx, p.sinkTimeout)
		err := s.sink.Append(sinkCtx, event)
		cancel()
		if err != nil {
			p.metrics.incSinkFailure(s.name)
			opened := s.breaker.RecordFailure()
			p.metrics.setBreaker(s.name, s.breaker.IsOpen())
			p.logger.ErrorContext(ctx, "audit sink write failed",
				"sink", s.name,
				"error", err,
				"action", event.Action,
				"report_id", event.ReportID,
				"circuit_opened", opened,
			)
			continue
		}
		s.breaker.RecordSuccess()
		p.metrics.setBreaker(s.name, false)
	}
}

// Close stops accepting events and drains the buffer.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.inbox != nil {
		close(p.inbox)
		<-p.done
	}
}
