// Package handlers exposes the booking, staff, master and client areas as a
// JSON API.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/nexsched/libs/auth"
	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/assist"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/booking"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/live"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/session"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

const SessionCookie = "nexsched_session"

type Deps struct {
	Store     *store.Store
	Booking   *booking.Flow
	Sessions  *session.Manager
	Tokens    *auth.Issuer
	Profiles  profiles.Backend
	Assistant *assist.Assistant
	Emitter   events.Emitter
	Hub       *live.Hub
	Logger    *slog.Logger

	// PublicBaseURL prefixes share links, e.g. "https://app.nexsched.com".
	PublicBaseURL string
	SecureCookies bool
}

type Handler struct {
	store     *store.Store
	booking   *booking.Flow
	sessions  *session.Manager
	tokens    *auth.Issuer
	profiles  profiles.Backend
	assistant *assist.Assistant
	emitter   events.Emitter
	hub       *live.Hub
	logger    *slog.Logger

	publicBaseURL string
	secureCookies bool
	now           func() time.Time
}

func New(d Deps) *Handler {
	if d.Emitter == nil {
		d.Emitter = events.Discard{}
	}
	if d.Profiles == nil {
		d.Profiles = profiles.Unconfigured{}
	}
	return &Handler{
		store:         d.Store,
		booking:       d.Booking,
		sessions:      d.Sessions,
		tokens:        d.Tokens,
		profiles:      d.Profiles,
		assistant:     d.Assistant,
		emitter:       d.Emitter,
		hub:           d.Hub,
		logger:        d.Logger,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(d.PublicBaseURL), "/"),
		secureCookies: d.SecureCookies,
		now:           time.Now,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/public/company", h.PublicCompany)
	mux.HandleFunc("GET /api/v1/public/slots", h.PublicSlots)
	mux.HandleFunc("POST /api/v1/public/book", h.PublicBook)

	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/register", h.RegisterAccount)
	mux.HandleFunc("GET /api/v1/auth/session", h.Session)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/auth/client/logout", h.ClientLogout)

	mux.HandleFunc("GET /api/v1/admin/dashboard", h.admin(h.AdminDashboard))
	mux.HandleFunc("GET /api/v1/admin/appointments", h.staff(h.AdminAppointments))
	mux.HandleFunc("POST /api/v1/admin/appointments/status", h.staff(h.AdminUpdateStatus))
	mux.HandleFunc("POST /api/v1/admin/appointments/reminder", h.staff(h.AdminReminder))
	mux.HandleFunc("GET /api/v1/admin/services", h.admin(h.AdminServices))
	mux.HandleFunc("POST /api/v1/admin/services", h.admin(h.AdminCreateService))
	mux.HandleFunc("DELETE /api/v1/admin/services/{id}", h.admin(h.AdminDeleteService))
	mux.HandleFunc("GET /api/v1/admin/financials", h.admin(h.AdminFinancials))
	mux.HandleFunc("POST /api/v1/admin/financials", h.admin(h.AdminAddFinancial))
	mux.HandleFunc("GET /api/v1/admin/financials/summary", h.admin(h.AdminFinancialSummary))
	mux.HandleFunc("GET /api/v1/admin/schedule", h.staff(h.AdminSchedule))
	mux.HandleFunc("PUT /api/v1/admin/schedule", h.staff(h.AdminPutSchedule))
	mux.HandleFunc("PUT /api/v1/admin/exceptions", h.staff(h.AdminPutException))
	mux.HandleFunc("GET /api/v1/admin/providers", h.admin(h.AdminProviders))
	mux.HandleFunc("GET /api/v1/admin/clients", h.admin(h.AdminClients))
	mux.HandleFunc("GET /api/v1/admin/share-link", h.admin(h.AdminShareLink))
	mux.HandleFunc("GET /api/v1/admin/live", h.admin(h.AdminLive))

	mux.HandleFunc("GET /api/v1/master/companies", h.master(h.MasterCompanies))
	mux.HandleFunc("POST /api/v1/master/companies", h.master(h.MasterCreateCompany))
	mux.HandleFunc("GET /api/v1/master/financials", h.master(h.MasterFinancials))

	mux.HandleFunc("GET /api/v1/client/dashboard", h.client(h.ClientDashboard))
	mux.HandleFunc("GET /api/v1/client/appointments", h.client(h.ClientAppointments))
	mux.HandleFunc("PUT /api/v1/client/profile", h.client(h.ClientUpdateProfile))
}

// sessionID returns the verified session id carried by the request, or "".
// The query token exists for WebSocket clients that cannot set headers.
func (h *Handler) sessionID(r *http.Request) string {
	var token string
	if c, err := r.Cookie(SessionCookie); err == nil {
		token = c.Value
	}
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return ""
	}
	claims, err := h.tokens.Verify(token)
	if err != nil {
		return ""
	}
	return claims.SessionID
}

type staffHandler func(w http.ResponseWriter, r *http.Request, user model.User)
type masterHandler func(w http.ResponseWriter, r *http.Request, user model.User)
type clientHandler func(w http.ResponseWriter, r *http.Request, sid string, client model.ClientUser)

func (h *Handler) loadState(w http.ResponseWriter, r *http.Request) (string, session.State, bool) {
	sid := h.sessionID(r)
	state, err := h.sessions.Load(r.Context(), sid)
	if err != nil {
		h.logger.Error("session load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return "", session.State{}, false
	}
	return sid, state, true
}

// staff admits company admins and providers bound to a company. Handlers
// behind it narrow providers to their own schedule and appointments.
func (h *Handler) staff(next staffHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, state, ok := h.loadState(w, r)
		if !ok {
			return
		}
		if state.User == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		u := *state.User
		if !u.Role.IsStaff() || u.CompanyID == "" {
			writeError(w, http.StatusForbidden, "company staff only")
			return
		}
		next(w, r, u)
	}
}

// admin is staff narrowed to COMPANY_ADMIN.
func (h *Handler) admin(next staffHandler) http.HandlerFunc {
	return h.staff(func(w http.ResponseWriter, r *http.Request, u model.User) {
		if u.Role != model.RoleCompanyAdmin {
			writeError(w, http.StatusForbidden, "company admin only")
			return
		}
		next(w, r, u)
	})
}

func (h *Handler) master(next masterHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, state, ok := h.loadState(w, r)
		if !ok {
			return
		}
		if state.User == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if state.User.Role != model.RoleMasterAdmin {
			writeError(w, http.StatusForbidden, "master admin only")
			return
		}
		next(w, r, *state.User)
	}
}

func (h *Handler) client(next clientHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid, state, ok := h.loadState(w, r)
		if !ok {
			return
		}
		if state.Client == nil {
			if state.User != nil {
				writeError(w, http.StatusForbidden, "client area only")
				return
			}
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r, sid, *state.Client)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	httpx.WriteJSON(w, status, map[string]string{"error": msg})
}

// decode writes a 400 itself when the body is not a single JSON object.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
