package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/nexsched/libs/kafkax"
	otelx "github.com/md-rashed-zaman/nexsched/libs/otel"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
}

type Publisher struct {
	outbox    *Outbox
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	newWriter func(brokers []string) MessageWriter
}

func NewPublisher(outbox *Outbox, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		outbox:    outbox,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		newWriter: func(brokers []string) MessageWriter {
			return &kafka.Writer{
				Addr:                   kafka.TCP(brokers...),
				Balancer:               &kafka.Hash{},
				AllowAutoTopicCreation: true,
			}
		},
	}
}

func (p *Publisher) Enabled() bool { return len(p.brokers) > 0 }

// Run drains the outbox every poll interval until ctx is cancelled. Without
// brokers it still drains, discarding events, so the queue stays bounded.
func (p *Publisher) Run(ctx context.Context) {
	var writer MessageWriter
	if p.Enabled() {
		writer = p.newWriter(p.brokers)
		defer writer.Close()
	} else {
		p.logger.Warn("event publisher disabled (no kafka brokers configured)")
	}

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if writer == nil {
				if n := len(p.outbox.Drain(0)); n > 0 {
					metrics.EventsDroppedTotal.Add(float64(n))
					p.logger.Debug("discarded events", "count", n)
				}
				continue
			}
			if err := p.publishBatch(ctx, writer); err != nil {
				p.logger.Error("event publish failed", "err", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) error {
	records := p.outbox.Drain(p.batchSize)
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		msgs = append(msgs, kafkax.Message(msgCtx, kafkax.Envelope{
			ID:         r.ID,
			Type:       string(r.Type),
			CompanyID:  r.AggregateID,
			Payload:    r.Payload,
			OccurredAt: r.OccurredAt,
		}))
	}

	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		p.outbox.Requeue(records)
		return err
	}
	for _, r := range records {
		metrics.EventsPublishedTotal.WithLabelValues(string(r.Type)).Inc()
	}
	return nil
}
