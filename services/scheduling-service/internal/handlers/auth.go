package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/session"
)

type loginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

type sessionResponse struct {
	Token         string            `json:"token,omitempty"`
	Authenticated bool              `json:"authenticated"`
	User          *model.User       `json:"user"`
	Client        *model.ClientUser `json:"client"`
	// AssistEnabled tells the dashboard whether AI drafting is live.
	AssistEnabled bool `json:"assist_enabled"`
}

// Login keeps the caller's session id when it already has one, so a staff
// login and a client login can share a browser.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	sid := h.sessionID(r)
	if sid == "" {
		sid = session.NewID()
	}
	state, err := h.sessions.Login(r.Context(), sid, session.Credentials{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case err == nil:
	case errors.Is(err, session.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, profiles.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		h.logger.Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.setSessionCookie(w, sid)
	if err != nil {
		h.logger.Error("session token sign failed", "err", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:         token,
		Authenticated: true,
		User:          state.User,
		Client:        state.Client,
	})
}

type registerRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// RegisterAccount creates the account and profile. The new identity joins the
// roster so the next login resolves it.
func (h *Handler) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	prof, err := profiles.Register(r.Context(), h.profiles, profiles.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case err == nil:
	case errors.Is(err, profiles.ErrInvalidRegistration):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, profiles.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, profiles.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, profiles.ErrProfileCreate):
		h.logger.Error("profile insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, profiles.ErrProfileCreate.Error())
		return
	default:
		h.logger.Error("registration failed", "err", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if prof.Role == model.RoleClient {
		if _, exists := h.store.ClientByEmail(prof.Email); !exists {
			h.store.AddClient(model.ClientUser{ID: prof.ID, Name: prof.Name, Email: prof.Email, CreatedAt: h.now().UTC()})
		}
	} else if _, exists := h.store.UserByEmail(prof.Email); !exists {
		h.store.AddUser(model.User{ID: prof.ID, Name: prof.Name, Email: prof.Email, Role: prof.Role, CompanyID: prof.CompanyID})
	}
	h.logger.Info("account registered", "account_id", prof.ID, "role", prof.Role)
	httpx.WriteJSON(w, http.StatusCreated, prof)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.Restore(r.Context(), h.sessionID(r))
	if err != nil {
		h.logger.Error("session restore failed", "err", err)
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: !state.Anonymous(),
		User:          state.User,
		Client:        state.Client,
		AssistEnabled: h.assistant.Configured(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid := h.sessionID(r); sid != "" {
		if err := h.sessions.Logout(r.Context(), sid); err != nil {
			h.logger.Error("logout failed", "err", err)
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClientLogout clears both identities, so the cookie goes too.
func (h *Handler) ClientLogout(w http.ResponseWriter, r *http.Request) {
	if sid := h.sessionID(r); sid != "" {
		if err := h.sessions.ClientLogout(r.Context(), sid); err != nil {
			h.logger.Error("client logout failed", "err", err)
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sid string) (string, error) {
	token, err := h.tokens.Sign(sid)
	if err != nil {
		return "", err
	}
	ttl := h.tokens.TTL()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		Expires:  h.now().Add(ttl),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}
