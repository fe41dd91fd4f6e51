package events

import (
	"context"
	"log/slog"
	"sync"

	otelx "github.com/md-rashed-zaman/nexsched/libs/otel"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
)

// Record is a queued event plus the trace context it was emitted under.
type Record struct {
	Event
	Traceparent string
	Tracestate  string
}

// Outbox is a bounded in-memory queue between request handlers and the
// Kafka publisher. When full, the oldest record is dropped.
type Outbox struct {
	mu       sync.Mutex
	queue    []Record
	capacity int
	logger   *slog.Logger
}

func NewOutbox(capacity int, logger *slog.Logger) *Outbox {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Outbox{capacity: capacity, logger: logger}
}

func (o *Outbox) Emit(ctx context.Context, e Event) {
	parent, state := otelx.TraceContextStrings(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) >= o.capacity {
		dropped := o.queue[0]
		o.queue = o.queue[1:]
		metrics.EventsDroppedTotal.Inc()
		o.logger.Warn("outbox full, dropping oldest event", "event_id", dropped.ID, "event_type", dropped.Type)
	}
	o.queue = append(o.queue, Record{Event: e, Traceparent: parent, Tracestate: state})
	metrics.OutboxDepth.Set(float64(len(o.queue)))
}

// Drain removes and returns up to max records in emission order.
func (o *Outbox) Drain(max int) []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.queue)
	if max > 0 && max < n {
		n = max
	}
	out := make([]Record, n)
	copy(out, o.queue[:n])
	o.queue = o.queue[n:]
	metrics.OutboxDepth.Set(float64(len(o.queue)))
	return out
}

// Requeue puts records back at the head of the queue, keeping their order.
// Records that no longer fit are dropped.
func (o *Outbox) Requeue(records []Record) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	room := o.capacity - len(o.queue)
	if room < len(records) {
		if room < 0 {
			room = 0
		}
		metrics.EventsDroppedTotal.Add(float64(len(records) - room))
		records = records[:room]
	}
	o.queue = append(append([]Record(nil), records...), o.queue...)
	metrics.OutboxDepth.Set(float64(len(o.queue)))
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}
