package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/booking"
)

func (h *Handler) PublicCompany(w http.ResponseWriter, r *http.Request) {
	cat, err := h.booking.Catalog(strings.TrimSpace(r.URL.Query().Get("slug")))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cat)
}

func (h *Handler) PublicSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := time.ParseInLocation(availability.DateLayout, q.Get("date"), h.booking.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	slots, err := h.booking.Slots(q.Get("slug"), q.Get("service_id"), date)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"date":  date.Format(availability.DateLayout),
		"slots": out,
	})
}

type bookRequest struct {
	Slug           string         `json:"slug"`
	ServiceID      string         `json:"service_id"`
	Start          string         `json:"start"`
	ClientName     string         `json:"client_name"`
	ClientPhone    string         `json:"client_phone"`
	Notes          string         `json:"notes"`
	CustomFormData map[string]any `json:"custom_form_data"`
}

func (h *Handler) PublicBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}
	start, err := booking.ParseStart(req.Start, h.booking.Location())
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	appt, err := h.booking.Book(r.Context(), booking.Request{
		Slug:           req.Slug,
		ServiceID:      req.ServiceID,
		Start:          start,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		Notes:          req.Notes,
		CustomFormData: req.CustomFormData,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, view(h.store, appt))
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrCompanyNotFound), errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrMissingFields), errors.Is(err, booking.ErrInvalidStart), errors.Is(err, booking.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrOutsideAvailability), errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("booking failed", "err", err)
		writeError(w, http.StatusInternalServerError, "booking failed")
	}
}
