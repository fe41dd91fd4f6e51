package handlers

import (
	"time"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

type appointmentView struct {
	model.Appointment
	StatusLabel     string `json:"status_label"`
	DurationMinutes int    `json:"duration_minutes"`
	ServiceName     string `json:"service_name,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
}

// views decorates appointments with their pt-BR status and the names the
// lists display. Unknown ids fall back to the raw id.
func views(st *store.Store, appts []model.Appointment) []appointmentView {
	services := map[string]string{}
	companies := map[string]string{}
	out := make([]appointmentView, 0, len(appts))
	for _, a := range appts {
		svc, ok := services[a.ServiceID]
		if !ok {
			svc = a.ServiceID
			if s, found := st.Service(a.ServiceID); found {
				svc = s.Name
			}
			services[a.ServiceID] = svc
		}
		company, ok := companies[a.CompanyID]
		if !ok {
			company = a.CompanyID
			if c, found := st.CompanyByID(a.CompanyID); found {
				company = c.Name
			}
			companies[a.CompanyID] = company
		}
		out = append(out, appointmentView{
			Appointment:     a,
			StatusLabel:     model.TranslateStatus(a.Status),
			DurationMinutes: int(a.Duration() / time.Minute),
			ServiceName:     svc,
			CompanyName:     company,
		})
	}
	return out
}

func view(st *store.Store, a model.Appointment) appointmentView {
	return views(st, []model.Appointment{a})[0]
}
