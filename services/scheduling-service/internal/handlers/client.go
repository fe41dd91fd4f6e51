package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/session"
)

func (h *Handler) ClientDashboard(w http.ResponseWriter, r *http.Request, _ string, c model.ClientUser) {
	stats := h.store.ClientStats(c.ID, h.now())
	resp := map[string]any{
		"client":             c,
		"total_appointments": stats.TotalAppointments,
		"upcoming":           stats.Upcoming,
	}
	if stats.Next != nil {
		resp["next"] = view(h.store, *stats.Next)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// ClientAppointments lists the client's bookings across every company,
// newest start first.
func (h *Handler) ClientAppointments(w http.ResponseWriter, r *http.Request, _ string, c model.ClientUser) {
	httpx.WriteJSON(w, http.StatusOK, views(h.store, h.store.AppointmentsByClient(c.ID)))
}

// profileRequest fields left out of the body keep their current value.
type profileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (h *Handler) ClientUpdateProfile(w http.ResponseWriter, r *http.Request, sid string, c model.ClientUser) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		c.Email = model.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		c.Phone = strings.TrimSpace(*req.Phone)
	}
	if c.Name == "" || c.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email cannot be blank")
		return
	}

	updated, err := h.sessions.UpdateClientProfile(r.Context(), sid, c)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrClientNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, session.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	default:
		h.logger.Error("client profile update failed", "client_id", c.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "profile update failed")
		return
	}

	// Clients belong to no tenant; each company they booked with hears the
	// change under its own id, like every other event.
	payload := map[string]string{"client_id": updated.ID}
	for _, companyID := range bookedCompanies(h.store.AppointmentsByClient(updated.ID)) {
		h.emit(r, events.ClientProfileUpdated, companyID, payload)
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func bookedCompanies(appts []model.Appointment) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range appts {
		if a.CompanyID != "" && !seen[a.CompanyID] {
			seen[a.CompanyID] = true
			out = append(out, a.CompanyID)
		}
	}
	return out
}
