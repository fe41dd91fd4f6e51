package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/assist"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

var testNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

type fakeSender struct {
	mu   sync.Mutex
	sent map[string]string
	fail bool
}

func (f *fakeSender) ProviderID() string { return "sms-fake" }

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("carrier down")
	}
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[to] = body
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixedComposer string

func (c fixedComposer) GenerateReminderMessage(context.Context, model.Appointment, string) string {
	return string(c)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Emit(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func newSweep(t *testing.T, composer Composer, sender *fakeSender, cfg SweepConfig) (*ReminderSweep, *store.Store, *recorder) {
	t.Helper()
	st := store.New(store.Seed(testNow, time.UTC))
	rec := &recorder{}
	w := NewReminderSweep(st, composer, sender, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	w.now = func() time.Time { return testNow }
	return w, st, rec
}

func TestSweepRemindsOncePerAppointment(t *testing.T) {
	sender := &fakeSender{}
	w, _, rec := newSweep(t, fixedComposer("Olá! Até logo."), sender, SweepConfig{})

	assert.Equal(t, 2, w.RunOnce(context.Background()))
	assert.Equal(t, "Olá! Até logo.", sender.sent["5511987654321"])
	assert.Equal(t, "Olá! Até logo.", sender.sent["5511912345678"])
	require.Len(t, rec.events, 2)
	assert.Equal(t, events.AppointmentReminder, rec.events[0].Type)

	assert.Equal(t, 0, w.RunOnce(context.Background()))
}

func TestSweepRespectsLeadAndStatus(t *testing.T) {
	sender := &fakeSender{}
	w, st, _ := newSweep(t, fixedComposer("oi"), sender, SweepConfig{Lead: 3 * time.Hour})
	st.UpdateAppointmentStatus("a1", model.StatusCancelled)

	// a1 is cancelled and a2 at 14:00 is beyond the 3h lead.
	assert.Equal(t, 0, w.RunOnce(context.Background()))

	w.lead = 8 * time.Hour
	assert.Equal(t, 1, w.RunOnce(context.Background()))
	_, ok := sender.sent["5511912345678"]
	assert.True(t, ok)
}

func TestSweepFallsBackWhenAssistantUnavailable(t *testing.T) {
	sender := &fakeSender{}
	w, _, _ := newSweep(t, fixedComposer(assist.MsgReminderNoKey), sender, SweepConfig{})

	w.RunOnce(context.Background())
	body := sender.sent["5511912345678"]
	assert.True(t, strings.HasPrefix(body, "Olá, Roberto Oliveira!"), body)
	assert.Contains(t, body, "Clínica TechHealth")
	assert.Contains(t, body, "10/01/2024 14:00")
	assert.Contains(t, body, "confirme")
	assert.NotContains(t, sender.sent["5511987654321"], "confirme")
}

func TestSweepGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{fail: true}
	w, _, rec := newSweep(t, fixedComposer("oi"), sender, SweepConfig{MaxAttempts: 2})
	ctx := context.Background()

	assert.Equal(t, 0, w.RunOnce(ctx))
	assert.Equal(t, 0, w.RunOnce(ctx))

	sender.fail = false
	assert.Equal(t, 0, w.RunOnce(ctx))
	assert.Empty(t, rec.events)
}

func TestSweepRetriesBeforeLimit(t *testing.T) {
	sender := &fakeSender{fail: true}
	w, _, _ := newSweep(t, fixedComposer("oi"), sender, SweepConfig{MaxAttempts: 3})
	ctx := context.Background()

	assert.Equal(t, 0, w.RunOnce(ctx))
	sender.fail = false
	assert.Equal(t, 2, w.RunOnce(ctx))
}

func TestSchedulerRunsSweep(t *testing.T) {
	sender := &fakeSender{}
	w, _, _ := newSweep(t, fixedComposer("oi"), sender, SweepConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := NewScheduler(ctx, w, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	s.Start()
	defer func() { _ = s.Shutdown() }()

	require.Eventually(t, func() bool { return sender.count() == 2 }, 2*time.Second, 10*time.Millisecond)
}
