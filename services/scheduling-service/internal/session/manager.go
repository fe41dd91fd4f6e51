// Package session keeps who is logged in for one browser session: at most one
// staff user and at most one client, each under its own key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

const (
	UserKey   = "nexsched_user"
	ClientKey = "nexsched_client"

	keyPrefix = "nexsched:session:"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrEmailTaken     = errors.New("email already in use by another client")
)

type State struct {
	User   *model.User       `json:"user"`
	Client *model.ClientUser `json:"client"`
}

func (s State) Anonymous() bool { return s.User == nil && s.Client == nil }

type Manager struct {
	kv       KV
	strategy AuthStrategy
	roster   Roster
	logger   *slog.Logger
}

func NewManager(kv KV, strategy AuthStrategy, roster Roster, logger *slog.Logger) *Manager {
	return &Manager{kv: kv, strategy: strategy, roster: roster, logger: logger}
}

func (m *Manager) Strategy() string { return m.strategy.Name() }

// Restore rebuilds the session: the staff user if one is stored, otherwise
// the client, otherwise nobody.
func (m *Manager) Restore(ctx context.Context, sid string) (State, error) {
	st, err := m.Load(ctx, sid)
	if err != nil {
		return State{}, err
	}
	if st.User != nil {
		st.Client = nil
	}
	return st, nil
}

// Load returns both stored identities. Guards use it so a browser holding a
// staff and a client login can reach both areas. Unreadable entries are
// dropped.
func (m *Manager) Load(ctx context.Context, sid string) (State, error) {
	if sid == "" {
		return State{}, nil
	}
	var st State
	var user model.User
	ok, err := m.load(ctx, sid, UserKey, &user)
	if err != nil {
		return State{}, err
	}
	if ok {
		st.User = &user
	}
	var client model.ClientUser
	ok, err = m.load(ctx, sid, ClientKey, &client)
	if err != nil {
		return State{}, err
	}
	if ok {
		st.Client = &client
	}
	return st, nil
}

func (m *Manager) Login(ctx context.Context, sid string, c Credentials) (State, error) {
	if !c.Role.Valid() {
		return State{}, ErrInvalidRole
	}
	id, err := m.strategy.Authenticate(ctx, c)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(string(c.Role), m.strategy.Name(), "rejected").Inc()
		m.logger.Info("login rejected", "role", c.Role, "strategy", m.strategy.Name(), "err", err)
		return State{}, err
	}
	metrics.LoginsTotal.WithLabelValues(string(c.Role), m.strategy.Name(), "ok").Inc()

	if id.Client != nil {
		if err := m.store(ctx, sid, ClientKey, id.Client); err != nil {
			return State{}, err
		}
		m.logger.Info("client logged in", "client_id", id.Client.ID)
		return State{Client: id.Client}, nil
	}
	if id.User == nil {
		return State{}, ErrInvalidCredentials
	}
	if err := m.store(ctx, sid, UserKey, id.User); err != nil {
		return State{}, err
	}
	m.logger.Info("user logged in", "user_id", id.User.ID, "role", id.User.Role, "company_id", id.User.CompanyID)
	return State{User: id.User}, nil
}

func (m *Manager) Logout(ctx context.Context, sid string) error {
	return m.kv.Delete(ctx, m.key(sid, UserKey))
}

// ClientLogout ends the client session and then any staff session too.
func (m *Manager) ClientLogout(ctx context.Context, sid string) error {
	if err := m.kv.Delete(ctx, m.key(sid, ClientKey)); err != nil {
		return err
	}
	return m.Logout(ctx, sid)
}

// UpdateClientProfile writes contact details back to the roster and makes
// the result the session's client. The credential and sign-up date are kept.
func (m *Manager) UpdateClientProfile(ctx context.Context, sid string, client model.ClientUser) (model.ClientUser, error) {
	existing, ok := m.roster.ClientByID(client.ID)
	if !ok {
		return model.ClientUser{}, ErrClientNotFound
	}
	client.Email = model.NormalizeEmail(client.Email)
	if other, taken := m.roster.ClientByEmail(client.Email); taken && other.ID != client.ID {
		return model.ClientUser{}, ErrEmailTaken
	}
	client.PasswordHash = existing.PasswordHash
	client.CreatedAt = existing.CreatedAt
	m.roster.UpdateClientProfile(client)

	pub := client.Public()
	if err := m.store(ctx, sid, ClientKey, &pub); err != nil {
		return model.ClientUser{}, err
	}
	return pub, nil
}

func (m *Manager) key(sid, name string) string {
	return keyPrefix + sid + ":" + name
}

func (m *Manager) load(ctx context.Context, sid, name string, dst any) (bool, error) {
	raw, err := m.kv.Get(ctx, m.key(sid, name))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		m.logger.Warn("dropping unreadable session entry", "key", name, "err", err)
		_ = m.kv.Delete(ctx, m.key(sid, name))
		return false, nil
	}
	return true, nil
}

func (m *Manager) store(ctx context.Context, sid, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := m.kv.Set(ctx, m.key(sid, name), raw); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
