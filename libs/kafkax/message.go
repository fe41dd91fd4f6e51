package kafkax

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Header keys set on every published event.
const (
	HeaderEventID   = "event_id"
	HeaderEventType = "event_type"
	HeaderCompanyID = "company_id"
)

// Envelope is one domain event on its way out. The topic is the event type
// and the company id is the partition key, so a tenant's events stay ordered.
type Envelope struct {
	ID         string
	Type       string
	CompanyID  string
	Payload    []byte
	OccurredAt time.Time
}

// Message builds the Kafka message for e, carrying the trace context of ctx
// in W3C headers next to the event metadata.
func Message(ctx context.Context, e Envelope) kafka.Message {
	c := &headerCarrier{headers: []kafka.Header{
		{Key: HeaderEventID, Value: []byte(e.ID)},
		{Key: HeaderEventType, Value: []byte(e.Type)},
	}}
	if e.CompanyID != "" {
		c.Set(HeaderCompanyID, e.CompanyID)
	}
	otel.GetTextMapPropagator().Inject(ctx, c)
	return kafka.Message{
		Topic:   e.Type,
		Key:     []byte(e.CompanyID),
		Value:   e.Payload,
		Time:    e.OccurredAt,
		Headers: c.headers,
	}
}

func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// SplitBrokers parses a comma-separated KAFKA_BROKERS value.
func SplitBrokers(raw string) []string {
	var out []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

type headerCarrier struct {
	headers []kafka.Header
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func (c *headerCarrier) Get(key string) string { return HeaderValue(c.headers, key) }

func (c *headerCarrier) Keys() []string {
	keys := make([]string, len(c.headers))
	for i, h := range c.headers {
		keys[i] = h.Key
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}
