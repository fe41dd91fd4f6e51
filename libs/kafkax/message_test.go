package kafkax

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestMessageCarriesMetaAndTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))
	at := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

	msg := Message(ctx, Envelope{
		ID:         "evt-1",
		Type:       "appointment.booked",
		CompanyID:  "c1",
		Payload:    []byte(`{"id":"apt_1"}`),
		OccurredAt: at,
	})

	if msg.Topic != "appointment.booked" || string(msg.Key) != "c1" || !msg.Time.Equal(at) {
		t.Fatalf("unexpected message routing %+v", msg)
	}
	if HeaderValue(msg.Headers, HeaderEventID) != "evt-1" || HeaderValue(msg.Headers, HeaderCompanyID) != "c1" {
		t.Fatalf("missing event headers: %v", msg.Headers)
	}
	if HeaderValue(msg.Headers, "traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	extracted := otel.GetTextMapPropagator().Extract(context.Background(), &headerCarrier{headers: msg.Headers})
	if trace.SpanContextFromContext(extracted).TraceID() != traceID {
		t.Fatal("expected trace id to survive the headers")
	}
}

func TestMessageWithoutCompany(t *testing.T) {
	msg := Message(context.Background(), Envelope{ID: "e", Type: "t"})
	if HeaderValue(msg.Headers, HeaderCompanyID) != "" {
		t.Fatal("expected no company header")
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}
