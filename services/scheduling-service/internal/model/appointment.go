package model

import "time"

// GuestClientID marks appointments booked through the public page without a client account.
const GuestClientID = "guest"

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "PENDING"
	StatusConfirmed  AppointmentStatus = "CONFIRMED"
	StatusEnRoute    AppointmentStatus = "EN_ROUTE"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
)

var statusLabels = map[AppointmentStatus]string{
	StatusPending:    "Pendente",
	StatusConfirmed:  "Confirmado",
	StatusEnRoute:    "A Caminho",
	StatusInProgress: "Em Andamento",
	StatusCompleted:  "Concluído",
	StatusCancelled:  "Cancelado",
}

func (s AppointmentStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// TranslateStatus returns the pt-BR label shown to tenants and clients.
func TranslateStatus(s AppointmentStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Appointment keeps ClientName and ClientPhone as typed at booking time.
// End is fixed at creation and never re-derived from the service.
type Appointment struct {
	ID             string            `json:"id"`
	CompanyID      string            `json:"company_id"`
	ServiceID      string            `json:"service_id"`
	ProviderID     string            `json:"provider_id"`
	ClientID       string            `json:"client_id"`
	ClientName     string            `json:"client_name"`
	ClientPhone    string            `json:"client_phone"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
	CustomFormData map[string]any    `json:"custom_form_data,omitempty"`
}

func (a Appointment) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

func (a Appointment) IsGuest() bool {
	return a.ClientID == GuestClientID
}

func (a Appointment) Clone() Appointment {
	out := a
	if a.CustomFormData != nil {
		out.CustomFormData = make(map[string]any, len(a.CustomFormData))
		for k, v := range a.CustomFormData {
			out.CustomFormData[k] = v
		}
	}
	return out
}
