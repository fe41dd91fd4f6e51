// Package booking implements the public booking flow: resolve the tenant by
// slug, pick a service, then create a PENDING guest appointment.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

var (
	ErrCompanyNotFound     = errors.New("company not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrInvalidDuration     = errors.New("service duration must be positive")
	ErrMissingFields       = errors.New("client name and phone are required")
	ErrInvalidStart        = errors.New("invalid start time")
	ErrOutsideAvailability = errors.New("requested time is outside provider availability")
	ErrSlotTaken           = errors.New("provider already booked at requested time")
)

// FallbackProviderID receives bookings for tenants without any staff.
const FallbackProviderID = "u3"

// Store is the slice of the tenant store the booking flow reads and writes.
type Store interface {
	CompanyBySlug(slug string) (model.Company, bool)
	Services(companyID string) []model.Service
	Service(id string) (model.Service, bool)
	Users() []model.User
	Providers(companyID string) []model.User
	WeeklySchedule(providerID string) (model.WeeklySchedule, bool)
	DayExceptions(providerID string) []model.DayException
	AppointmentsByProvider(providerID string) []model.Appointment
	AddAppointment(appt model.Appointment)
}

// Guard turns on the optional validated layer. The zero value checks
// nothing, so overlapping bookings are accepted.
type Guard struct {
	EnforceAvailability bool
	PreventOverlap      bool
}

func (g Guard) active() bool { return g.EnforceAvailability || g.PreventOverlap }

type Config struct {
	Guard    Guard
	Location *time.Location
	SlotStep time.Duration
	// Now defaults to time.Now. Slots before it are never offered.
	Now func() time.Time
}

type Flow struct {
	store    Store
	emitter  events.Emitter
	logger   *slog.Logger
	guard    Guard
	loc      *time.Location
	slotStep time.Duration
	now      func() time.Time
	newID    func() string

	// mu makes the guard check and the insert atomic when a guard is on.
	mu sync.Mutex
}

func NewFlow(store Store, emitter events.Emitter, logger *slog.Logger, cfg Config) *Flow {
	if emitter == nil {
		emitter = events.Discard{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Flow{
		store:    store,
		emitter:  emitter,
		logger:   logger,
		guard:    cfg.Guard,
		loc:      cfg.Location,
		slotStep: cfg.SlotStep,
		now:      cfg.Now,
		newID:    func() string { return "apt_" + uuid.NewString() },
	}
}

func (f *Flow) Location() *time.Location { return f.loc }

type Catalog struct {
	Company  model.Company   `json:"company"`
	Services []model.Service `json:"services"`
}

// Catalog is step one: the tenant behind slug and the services it offers.
func (f *Flow) Catalog(slug string) (Catalog, error) {
	company, ok := f.store.CompanyBySlug(slug)
	if !ok {
		return Catalog{}, ErrCompanyNotFound
	}
	return Catalog{Company: company, Services: f.store.Services(company.ID)}, nil
}

type Request struct {
	Slug           string
	ServiceID      string
	Start          time.Time
	ClientName     string
	ClientPhone    string
	Notes          string
	CustomFormData map[string]any
}

// Book is steps two and three. End is computed here, once, from the
// service duration.
func (f *Flow) Book(ctx context.Context, req Request) (model.Appointment, error) {
	company, svc, err := f.resolve(req.Slug, req.ServiceID)
	if err != nil {
		f.countBooking(req.Slug, err)
		return model.Appointment{}, err
	}
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ClientPhone = strings.TrimSpace(req.ClientPhone)
	if req.ClientName == "" || req.ClientPhone == "" {
		f.countBooking(company.ID, ErrMissingFields)
		return model.Appointment{}, ErrMissingFields
	}
	if req.Start.IsZero() {
		f.countBooking(company.ID, ErrInvalidStart)
		return model.Appointment{}, ErrInvalidStart
	}

	appt := model.Appointment{
		ID:             f.newID(),
		CompanyID:      company.ID,
		ServiceID:      svc.ID,
		ProviderID:     f.defaultProvider(company.ID),
		ClientID:       model.GuestClientID,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		Start:          req.Start,
		End:            req.Start.Add(time.Duration(svc.DurationMinutes) * time.Minute),
		Status:         model.StatusPending,
		Notes:          strings.TrimSpace(req.Notes),
		CustomFormData: req.CustomFormData,
	}

	if f.guard.active() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := f.check(appt); err != nil {
			f.countBooking(company.ID, err)
			return model.Appointment{}, err
		}
	}

	f.store.AddAppointment(appt)
	f.countBooking(company.ID, nil)
	f.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"company_id", appt.CompanyID,
		"service_id", appt.ServiceID,
		"start", appt.Start.Format(time.RFC3339),
	)

	if evt, err := events.New(events.AppointmentBooked, appt.CompanyID, appt); err == nil {
		f.emitter.Emit(ctx, evt)
	}
	return appt, nil
}

// Slots lists start times on date at which the service would fit the default
// provider's schedule without overlapping existing bookings.
func (f *Flow) Slots(slug, serviceID string, date time.Time) ([]time.Time, error) {
	company, svc, err := f.resolve(slug, serviceID)
	if err != nil {
		return nil, err
	}
	providerID := f.defaultProvider(company.ID)
	windows := f.windows(providerID, date)
	busy := availability.BusyIntervals(f.store.AppointmentsByProvider(providerID))
	duration := time.Duration(svc.DurationMinutes) * time.Minute
	return availability.AvailableSlots(windows, duration, f.slotStep, busy, f.now().In(f.loc)), nil
}

func (f *Flow) resolve(slug, serviceID string) (model.Company, model.Service, error) {
	company, ok := f.store.CompanyBySlug(slug)
	if !ok {
		return model.Company{}, model.Service{}, ErrCompanyNotFound
	}
	svc, ok := f.store.Service(serviceID)
	if !ok || svc.CompanyID != company.ID {
		return model.Company{}, model.Service{}, ErrServiceNotFound
	}
	if svc.DurationMinutes <= 0 {
		return model.Company{}, model.Service{}, ErrInvalidDuration
	}
	return company, svc, nil
}

func (f *Flow) check(appt model.Appointment) error {
	if f.guard.EnforceAvailability {
		if !availability.Fits(appt.Start, appt.End, f.windows(appt.ProviderID, appt.Start)) {
			return ErrOutsideAvailability
		}
	}
	if f.guard.PreventOverlap {
		busy := availability.BusyIntervals(f.store.AppointmentsByProvider(appt.ProviderID))
		if availability.Overlaps(appt.Start, appt.End, busy) {
			return ErrSlotTaken
		}
	}
	return nil
}

func (f *Flow) windows(providerID string, day time.Time) []availability.Interval {
	var weekly *model.WeeklySchedule
	if ws, ok := f.store.WeeklySchedule(providerID); ok {
		weekly = &ws
	}
	return availability.WindowsFor(day, weekly, f.store.DayExceptions(providerID), f.loc)
}

// defaultProvider picks the company's first PROVIDER, then any staff member
// of the company, then FallbackProviderID.
func (f *Flow) defaultProvider(companyID string) string {
	if providers := f.store.Providers(companyID); len(providers) > 0 {
		return providers[0].ID
	}
	for _, u := range f.store.Users() {
		if u.CompanyID == companyID {
			return u.ID
		}
	}
	return FallbackProviderID
}

func (f *Flow) countBooking(companyID string, err error) {
	outcome := "created"
	switch {
	case err == nil:
	case errors.Is(err, ErrCompanyNotFound), errors.Is(err, ErrServiceNotFound):
		outcome = "not_found"
		companyID = "unknown"
	case errors.Is(err, ErrOutsideAvailability), errors.Is(err, ErrSlotTaken):
		outcome = "rejected"
	default:
		outcome = "invalid"
	}
	metrics.BookingsTotal.WithLabelValues(companyID, outcome).Inc()
}
