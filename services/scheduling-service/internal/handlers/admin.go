package handlers

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/notify"
)

const recentActivity = 3

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request, u model.User) {
	appts := h.store.Appointments(u.CompanyID)
	if len(appts) > recentActivity {
		appts = appts[:recentActivity]
	}
	resp := map[string]any{
		"stats":  h.store.CompanyStats(u.CompanyID),
		"recent": views(h.store, appts),
	}
	if c, ok := h.store.CompanyByID(u.CompanyID); ok {
		resp["company"] = c
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// AdminAppointments lists the company's agenda; a provider sees only their own.
func (h *Handler) AdminAppointments(w http.ResponseWriter, r *http.Request, u model.User) {
	var appts []model.Appointment
	for _, a := range h.store.Appointments(u.CompanyID) {
		if canManage(u, a) {
			appts = append(appts, a)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, views(h.store, appts))
}

func canManage(u model.User, a model.Appointment) bool {
	if a.CompanyID != u.CompanyID {
		return false
	}
	return u.Role == model.RoleCompanyAdmin || a.ProviderID == u.ID
}

type statusRequest struct {
	ID     string                  `json:"id"`
	Status model.AppointmentStatus `json:"status"`
}

// AdminUpdateStatus allows any transition, including out of a terminal state.
func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request, u model.User) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	appt, ok := h.store.Appointment(req.ID)
	if !ok || !canManage(u, appt) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	previous := appt.Status
	h.store.UpdateAppointmentStatus(appt.ID, req.Status)
	appt.Status = req.Status
	metrics.StatusChangesTotal.WithLabelValues(string(req.Status)).Inc()
	h.logger.Info("appointment status changed",
		"appointment_id", appt.ID,
		"company_id", appt.CompanyID,
		"from", previous,
		"to", req.Status,
		"user_id", u.ID,
	)
	h.emit(r, events.AppointmentStatusChanged, appt.CompanyID, map[string]any{
		"appointment_id": appt.ID,
		"from":           previous,
		"to":             req.Status,
		"changed_by":     u.ID,
	})
	httpx.WriteJSON(w, http.StatusOK, view(h.store, appt))
}

type reminderRequest struct {
	ID string `json:"id"`
}

// AdminReminder drafts a WhatsApp message for the appointment. The text is
// returned even when the assistant is unavailable.
func (h *Handler) AdminReminder(w http.ResponseWriter, r *http.Request, u model.User) {
	var req reminderRequest
	if !decode(w, r, &req) {
		return
	}
	appt, ok := h.store.Appointment(req.ID)
	if !ok || !canManage(u, appt) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	company, ok := h.store.CompanyByID(appt.CompanyID)
	if !ok {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	msg := h.assistant.GenerateReminderMessage(r.Context(), appt, company.Name)
	resp := map[string]any{"message": msg}
	if phone := strings.TrimPrefix(notify.E164(appt.ClientPhone), "+"); phone != "" {
		resp["whatsapp_url"] = "https://wa.me/" + phone + "?text=" + url.QueryEscape(msg)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AdminServices(w http.ResponseWriter, r *http.Request, u model.User) {
	httpx.WriteJSON(w, http.StatusOK, h.store.Services(u.CompanyID))
}

type serviceRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Color           string  `json:"color"`
}

func (h *Handler) AdminCreateService(w http.ResponseWriter, r *http.Request, u model.User) {
	var req serviceRequest
	if !decode(w, r, &req) {
		return
	}
	if req.DurationMinutes <= 0 || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "duration must be positive and price not negative")
		return
	}
	svc := model.Service{
		ID:              "srv_" + uuid.NewString(),
		CompanyID:       u.CompanyID,
		Name:            strings.TrimSpace(req.Name),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Color:           req.Color,
	}
	h.store.AddService(svc)
	h.emit(r, events.ServiceCreated, svc.CompanyID, svc)
	httpx.WriteJSON(w, http.StatusCreated, svc)
}

// AdminDeleteService leaves existing appointments pointing at the removed id.
func (h *Handler) AdminDeleteService(w http.ResponseWriter, r *http.Request, u model.User) {
	id := r.PathValue("id")
	svc, ok := h.store.Service(id)
	if !ok || svc.CompanyID != u.CompanyID {
		writeError(w, http.StatusNotFound, "service not found")
		return
	}
	h.store.DeleteService(id)
	h.emit(r, events.ServiceDeleted, svc.CompanyID, map[string]string{"service_id": id})
	w.WriteHeader(http.StatusNoContent)
}

type financialView struct {
	model.FinancialRecord
	Signed float64 `json:"signed_amount"`
}

func financialViews(records []model.FinancialRecord) []financialView {
	out := make([]financialView, 0, len(records))
	for _, f := range records {
		out = append(out, financialView{FinancialRecord: f, Signed: f.SignedAmount()})
	}
	return out
}

func (h *Handler) AdminFinancials(w http.ResponseWriter, r *http.Request, u model.User) {
	httpx.WriteJSON(w, http.StatusOK, financialViews(h.store.Financials(u.CompanyID)))
}

type financialRequest struct {
	Amount      float64          `json:"amount"`
	Type        model.RecordType `json:"type"`
	Date        string           `json:"date"`
	Description string           `json:"description"`
}

func (h *Handler) AdminAddFinancial(w http.ResponseWriter, r *http.Request, u model.User) {
	var req financialRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type != model.RecordIncome && req.Type != model.RecordExpense {
		writeError(w, http.StatusBadRequest, "type must be INCOME or EXPENSE")
		return
	}
	if req.Date == "" {
		req.Date = h.now().In(h.booking.Location()).Format("2006-01-02")
	}
	rec := model.FinancialRecord{
		ID:          "fin_" + uuid.NewString(),
		CompanyID:   u.CompanyID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        req.Date,
		Description: strings.TrimSpace(req.Description),
	}.Normalize()
	h.store.AddFinancialRecord(rec)
	httpx.WriteJSON(w, http.StatusCreated, financialView{FinancialRecord: rec, Signed: rec.SignedAmount()})
}

func (h *Handler) AdminFinancialSummary(w http.ResponseWriter, r *http.Request, u model.User) {
	summary := h.assistant.SummarizeFinancials(r.Context(), h.store.Financials(u.CompanyID))
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// providerFor resolves ?provider_id= within the caller's company. Without
// one, staff manage their own schedule.
func (h *Handler) providerFor(w http.ResponseWriter, r *http.Request, u model.User, id string) (string, bool) {
	if id == "" || id == u.ID {
		return u.ID, true
	}
	for _, staff := range h.store.Users() {
		if staff.ID == id && staff.CompanyID == u.CompanyID {
			if u.Role != model.RoleCompanyAdmin {
				writeError(w, http.StatusForbidden, "providers manage only their own schedule")
				return "", false
			}
			return id, true
		}
	}
	writeError(w, http.StatusNotFound, "provider not found")
	return "", false
}

func (h *Handler) AdminSchedule(w http.ResponseWriter, r *http.Request, u model.User) {
	providerID, ok := h.providerFor(w, r, u, r.URL.Query().Get("provider_id"))
	if !ok {
		return
	}
	weekly, found := h.store.WeeklySchedule(providerID)
	resp := map[string]any{
		"provider_id": providerID,
		"exceptions":  h.store.DayExceptions(providerID),
	}
	if found {
		resp["weekly"] = weekly
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) AdminPutSchedule(w http.ResponseWriter, r *http.Request, u model.User) {
	var req model.WeeklySchedule
	if !decode(w, r, &req) {
		return
	}
	providerID, ok := h.providerFor(w, r, u, req.ProviderID)
	if !ok {
		return
	}
	req.ProviderID = providerID
	if req.Schedule == nil {
		req.Schedule = map[int]model.DaySchedule{}
	}
	h.store.UpsertWeeklySchedule(req)
	h.emit(r, events.ScheduleUpdated, u.CompanyID, req)
	httpx.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) AdminPutException(w http.ResponseWriter, r *http.Request, u model.User) {
	var req model.DayException
	if !decode(w, r, &req) {
		return
	}
	providerID, ok := h.providerFor(w, r, u, req.ProviderID)
	if !ok {
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	req.ProviderID = providerID
	if req.ID == "" {
		if prev, ok := h.store.DayException(providerID, req.Date); ok {
			req.ID = prev.ID
		} else {
			req.ID = "exc_" + uuid.NewString()
		}
	}
	h.store.UpsertDayException(req)
	h.emit(r, events.ExceptionUpdated, u.CompanyID, req)
	httpx.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) AdminProviders(w http.ResponseWriter, r *http.Request, u model.User) {
	providers := h.store.Providers(u.CompanyID)
	if providers == nil {
		providers = []model.User{}
	}
	httpx.WriteJSON(w, http.StatusOK, providers)
}

type clientSummary struct {
	ClientID     string    `json:"client_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	Appointments int       `json:"appointments"`
	LastVisit    time.Time `json:"last_visit"`
}

// AdminClients lists everyone who booked with the company. Guests are told
// apart by name and phone.
func (h *Handler) AdminClients(w http.ResponseWriter, r *http.Request, u model.User) {
	byKey := map[string]*clientSummary{}
	var order []string
	for _, a := range h.store.Appointments(u.CompanyID) {
		key := a.ClientID
		if a.IsGuest() {
			key = "guest:" + a.ClientName + "|" + a.ClientPhone
		}
		cs, ok := byKey[key]
		if !ok {
			cs = &clientSummary{ClientID: a.ClientID, Name: a.ClientName, Phone: a.ClientPhone}
			if c, found := h.store.ClientByID(a.ClientID); found {
				cs.Email = c.Email
			}
			byKey[key] = cs
			order = append(order, key)
		}
		cs.Appointments++
		if a.Start.After(cs.LastVisit) {
			cs.LastVisit = a.Start
		}
	}
	out := make([]clientSummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastVisit.After(out[j].LastVisit) })
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) AdminShareLink(w http.ResponseWriter, r *http.Request, u model.User) {
	company, ok := h.store.CompanyByID(u.CompanyID)
	if !ok {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	base := h.publicBaseURL
	if base == "" {
		base = requestOrigin(r)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"url": base + "/#/schedule/" + company.Slug,
	})
}

func (h *Handler) AdminLive(w http.ResponseWriter, r *http.Request, u model.User) {
	if h.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "live updates disabled")
		return
	}
	h.hub.Serve(w, r, u.CompanyID)
}

func (h *Handler) emit(r *http.Request, t events.Type, companyID string, payload any) {
	evt, err := events.New(t, companyID, payload)
	if err != nil {
		h.logger.Error("event encode failed", "event_type", t, "err", err)
		return
	}
	h.emitter.Emit(r.Context(), evt)
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
