// Package jobs runs the periodic reminder sweep.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/assist"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/notify"
)

type Store interface {
	AppointmentsBetween(from, to time.Time) []model.Appointment
	CompanyByID(id string) (model.Company, bool)
}

type Composer interface {
	GenerateReminderMessage(ctx context.Context, appt model.Appointment, companyName string) string
}

type SweepConfig struct {
	Lead        time.Duration
	MaxAttempts int
	Location    *time.Location
}

// ReminderSweep sends one reminder per upcoming appointment. Reminded ids are
// kept in memory, so a restart may remind again.
type ReminderSweep struct {
	store       Store
	composer    Composer
	sender      notify.Sender
	emitter     events.Emitter
	logger      *slog.Logger
	lead        time.Duration
	maxAttempts int
	loc         *time.Location
	now         func() time.Time

	mu       sync.Mutex
	done     map[string]bool
	attempts map[string]int
}

func NewReminderSweep(store Store, composer Composer, sender notify.Sender, emitter events.Emitter, logger *slog.Logger, cfg SweepConfig) *ReminderSweep {
	if cfg.Lead <= 0 {
		cfg.Lead = 24 * time.Hour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if emitter == nil {
		emitter = events.Discard{}
	}
	return &ReminderSweep{
		store:       store,
		composer:    composer,
		sender:      sender,
		emitter:     emitter,
		logger:      logger,
		lead:        cfg.Lead,
		maxAttempts: cfg.MaxAttempts,
		loc:         cfg.Location,
		now:         time.Now,
		done:        make(map[string]bool),
		attempts:    make(map[string]int),
	}
}

// RunOnce reminds every PENDING or CONFIRMED appointment starting within the
// lead window and returns how many reminders went out.
func (w *ReminderSweep) RunOnce(ctx context.Context) int {
	now := w.now()
	sent := 0
	for _, appt := range w.store.AppointmentsBetween(now, now.Add(w.lead)) {
		if ctx.Err() != nil {
			break
		}
		if appt.Status != model.StatusPending && appt.Status != model.StatusConfirmed {
			continue
		}
		if !appt.Start.After(now) || w.isDone(appt.ID) {
			continue
		}
		if w.remind(ctx, appt) {
			sent++
		}
	}
	return sent
}

func (w *ReminderSweep) remind(ctx context.Context, appt model.Appointment) bool {
	companyName := appt.CompanyID
	if company, ok := w.store.CompanyByID(appt.CompanyID); ok {
		companyName = company.Name
	}

	body := w.composer.GenerateReminderMessage(ctx, appt, companyName)
	if assist.IsPlaceholder(body) {
		body = fallbackMessage(appt, companyName, w.loc)
	}

	provider := w.sender.ProviderID()
	if err := w.sender.Send(ctx, appt.ClientPhone, body); err != nil {
		metrics.RemindersSentTotal.WithLabelValues(provider, "failed").Inc()
		attempts := w.fail(appt.ID)
		w.logger.Warn("reminder send failed",
			"appointment_id", appt.ID,
			"provider", provider,
			"attempts", attempts,
			"err", err,
		)
		return false
	}

	w.markDone(appt.ID)
	metrics.RemindersSentTotal.WithLabelValues(provider, "sent").Inc()
	w.logger.Info("reminder sent", "appointment_id", appt.ID, "company_id", appt.CompanyID, "provider", provider)

	evt, err := events.New(events.AppointmentReminder, appt.CompanyID, map[string]any{
		"appointment_id": appt.ID,
		"company_id":     appt.CompanyID,
		"recipient":      appt.ClientPhone,
		"provider":       provider,
		"start":          appt.Start.UTC().Format(time.RFC3339),
	})
	if err == nil {
		w.emitter.Emit(ctx, evt)
	}
	return true
}

func (w *ReminderSweep) isDone(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done[id]
}

func (w *ReminderSweep) markDone(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done[id] = true
	delete(w.attempts, id)
}

// fail counts a failed attempt and gives up on the appointment once the
// limit is reached.
func (w *ReminderSweep) fail(id string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[id]++
	n := w.attempts[id]
	if n >= w.maxAttempts {
		w.done[id] = true
		delete(w.attempts, id)
	}
	return n
}

func fallbackMessage(appt model.Appointment, companyName string, loc *time.Location) string {
	msg := fmt.Sprintf("Olá, %s! Lembrete do seu horário em %s: %s.",
		appt.ClientName, companyName, appt.Start.In(loc).Format("02/01/2006 15:04"))
	if appt.Status == model.StatusPending {
		msg += " Por favor, confirme sua presença."
	}
	return msg
}
