package store

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

func (s *Store) Companies() []model.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c.Clone())
	}
	return out
}

// CompanyBySlug matches the slug exactly, including case.
func (s *Store) CompanyBySlug(slug string) (model.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.Slug == slug {
			return c.Clone(), true
		}
	}
	return model.Company{}, false
}

func (s *Store) CompanyByID(id string) (model.Company, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.Company{}, false
}

func (s *Store) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.User(nil), s.users...)
}

func (s *Store) UserByEmail(email string) (model.User, bool) {
	email = model.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return model.User{}, false
}

// Providers lists the PROVIDER staff of a company in roster order.
func (s *Store) Providers(companyID string) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.User
	for _, u := range s.users {
		if u.CompanyID == companyID && u.Role == model.RoleProvider {
			out = append(out, u)
		}
	}
	return out
}

func (s *Store) Clients() []model.ClientUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ClientUser(nil), s.clients...)
}

func (s *Store) ClientByEmail(email string) (model.ClientUser, bool) {
	email = model.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.Email == email {
			return c, true
		}
	}
	return model.ClientUser{}, false
}

func (s *Store) ClientByID(id string) (model.ClientUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ID == id {
			return c, true
		}
	}
	return model.ClientUser{}, false
}

func (s *Store) Services(companyID string) []model.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Service
	for _, svc := range s.services {
		if svc.CompanyID == companyID {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Store) Service(id string) (model.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return model.Service{}, false
}

func (s *Store) Appointment(id string) (model.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return model.Appointment{}, false
}

// Appointments returns a company's appointments in booking order.
func (s *Store) Appointments(companyID string) []model.Appointment {
	return s.filterAppointments(func(a model.Appointment) bool { return a.CompanyID == companyID })
}

// AppointmentsByProvider feeds the optional overlap guard.
func (s *Store) AppointmentsByProvider(providerID string) []model.Appointment {
	return s.filterAppointments(func(a model.Appointment) bool { return a.ProviderID == providerID })
}

// AppointmentsByClient returns the client's appointments, newest start first.
func (s *Store) AppointmentsByClient(clientID string) []model.Appointment {
	out := s.filterAppointments(func(a model.Appointment) bool { return a.ClientID == clientID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out
}

// AppointmentsBetween returns appointments whose start lies in [from, to).
func (s *Store) AppointmentsBetween(from, to time.Time) []model.Appointment {
	return s.filterAppointments(func(a model.Appointment) bool {
		return !a.Start.Before(from) && a.Start.Before(to)
	})
}

func (s *Store) filterAppointments(keep func(model.Appointment) bool) []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Financials returns one company's records; an empty companyID returns all
// tenants' records (master view).
func (s *Store) Financials(companyID string) []model.FinancialRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.FinancialRecord
	for _, f := range s.financials {
		if companyID == "" || f.CompanyID == companyID {
			out = append(out, f)
		}
	}
	return out
}

func (s *Store) WeeklySchedule(providerID string) (model.WeeklySchedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.weekly {
		if w.ProviderID == providerID {
			return w.Clone(), true
		}
	}
	return model.WeeklySchedule{}, false
}

// DayException returns the override a provider has for one YYYY-MM-DD date.
func (s *Store) DayException(providerID, date string) (model.DayException, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.exceptions {
		if e.ProviderID == providerID && e.Date == date {
			return e.Clone(), true
		}
	}
	return model.DayException{}, false
}

func (s *Store) DayExceptions(providerID string) []model.DayException {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.DayException
	for _, e := range s.exceptions {
		if e.ProviderID == providerID {
			out = append(out, e.Clone())
		}
	}
	return out
}

type CompanyStats struct {
	TotalAppointments int     `json:"total_appointments"`
	PendingCount      int     `json:"pending_count"`
	Revenue           float64 `json:"revenue"`
}

// CompanyStats feeds the tenant dashboard. Revenue sums INCOME records only.
func (s *Store) CompanyStats(companyID string) CompanyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st CompanyStats
	for _, a := range s.appointments {
		if a.CompanyID != companyID {
			continue
		}
		st.TotalAppointments++
		if a.Status == model.StatusPending {
			st.PendingCount++
		}
	}
	for _, f := range s.financials {
		if f.CompanyID == companyID && f.Type == model.RecordIncome {
			st.Revenue += f.Amount
		}
	}
	return st
}

type ClientStats struct {
	TotalAppointments int                `json:"total_appointments"`
	Upcoming          int                `json:"upcoming"`
	Next              *model.Appointment `json:"next,omitempty"`
}

func (s *Store) ClientStats(clientID string, now time.Time) ClientStats {
	var st ClientStats
	for _, a := range s.AppointmentsByClient(clientID) {
		st.TotalAppointments++
		if !a.Start.After(now) {
			continue
		}
		st.Upcoming++
		if st.Next == nil || a.Start.Before(st.Next.Start) {
			next := a
			st.Next = &next
		}
	}
	return st
}
