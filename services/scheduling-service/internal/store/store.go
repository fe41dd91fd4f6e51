// Package store holds the tenant collections for the lifetime of the process.
//
// Mutations follow the "best-effort CRUD" contract: they accept any input,
// never fail and return nothing. The single exception is AddCompany, which
// guards slug uniqueness.
package store

import (
	"errors"
	"sync"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

var ErrSlugTaken = errors.New("company slug already in use")

// Snapshot is a detached copy of every collection.
type Snapshot struct {
	Companies       []model.Company
	Users           []model.User
	Clients         []model.ClientUser
	Services        []model.Service
	Appointments    []model.Appointment
	Financials      []model.FinancialRecord
	WeeklySchedules []model.WeeklySchedule
	DayExceptions   []model.DayException
}

type Store struct {
	mu sync.RWMutex

	companies    []model.Company
	users        []model.User
	clients      []model.ClientUser
	services     []model.Service
	appointments []model.Appointment
	financials   []model.FinancialRecord
	weekly       []model.WeeklySchedule
	exceptions   []model.DayException
}

// New builds a store from seed. Financial amounts are normalised on the way in.
func New(seed Snapshot) *Store {
	s := &Store{}
	s.load(seed)
	return s
}

func (s *Store) load(seed Snapshot) {
	for _, c := range seed.Companies {
		s.companies = append(s.companies, c.Clone())
	}
	for _, u := range seed.Users {
		u.Email = model.NormalizeEmail(u.Email)
		s.users = append(s.users, u)
	}
	for _, c := range seed.Clients {
		c.Email = model.NormalizeEmail(c.Email)
		s.clients = append(s.clients, c)
	}
	s.services = append(s.services, seed.Services...)
	for _, a := range seed.Appointments {
		s.appointments = append(s.appointments, a.Clone())
	}
	for _, f := range seed.Financials {
		s.financials = append(s.financials, f.Normalize())
	}
	for _, w := range seed.WeeklySchedules {
		s.weekly = append(s.weekly, w.Clone())
	}
	for _, e := range seed.DayExceptions {
		s.exceptions = append(s.exceptions, e.Clone())
	}
}

// snapshot copies every collection. Tests compare it around no-op writes.
func (s *Store) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out Snapshot
	for _, c := range s.companies {
		out.Companies = append(out.Companies, c.Clone())
	}
	out.Users = append(out.Users, s.users...)
	out.Clients = append(out.Clients, s.clients...)
	out.Services = append(out.Services, s.services...)
	for _, a := range s.appointments {
		out.Appointments = append(out.Appointments, a.Clone())
	}
	out.Financials = append(out.Financials, s.financials...)
	for _, w := range s.weekly {
		out.WeeklySchedules = append(out.WeeklySchedules, w.Clone())
	}
	for _, e := range s.exceptions {
		out.DayExceptions = append(out.DayExceptions, e.Clone())
	}
	return out
}

// AddAppointment appends without any conflict check; two appointments may
// share a provider and time.
func (s *Store) AddAppointment(appt model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments = append(s.appointments, appt.Clone())
}

// UpdateAppointmentStatus sets the status of the matching appointment. Any
// status may follow any other. Unknown ids are ignored.
func (s *Store) UpdateAppointmentStatus(id string, status model.AppointmentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i].Status = status
		}
	}
}

func (s *Store) UpsertWeeklySchedule(schedule model.WeeklySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.weekly {
		if s.weekly[i].ProviderID == schedule.ProviderID {
			s.weekly[i] = schedule.Clone()
			return
		}
	}
	s.weekly = append(s.weekly, schedule.Clone())
}

func (s *Store) UpsertDayException(exception model.DayException) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.exceptions {
		e := s.exceptions[i]
		if e.ProviderID == exception.ProviderID && e.Date == exception.Date {
			s.exceptions[i] = exception.Clone()
			return
		}
	}
	s.exceptions = append(s.exceptions, exception.Clone())
}

func (s *Store) AddService(service model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, service)
}

func (s *Store) DeleteService(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.services[:0]
	for _, svc := range s.services {
		if svc.ID != id {
			kept = append(kept, svc)
		}
	}
	s.services = kept
}

// UpdateClientProfile replaces the roster entry with the same id. Making it
// the active client session is the session layer's job.
func (s *Store) UpdateClientProfile(client model.ClientUser) {
	client.Email = model.NormalizeEmail(client.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == client.ID {
			s.clients[i] = client
		}
	}
}

func (s *Store) AddCompany(company model.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Slug == company.Slug {
			return ErrSlugTaken
		}
	}
	s.companies = append(s.companies, company.Clone())
	return nil
}

// AddUser and AddClient store the email normalised; lookups by email ignore case.
func (s *Store) AddUser(user model.User) {
	user.Email = model.NormalizeEmail(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, user)
}

func (s *Store) AddClient(client model.ClientUser) {
	client.Email = model.NormalizeEmail(client.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append(s.clients, client)
}

func (s *Store) AddFinancialRecord(record model.FinancialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.financials = append(s.financials, record.Normalize())
}
