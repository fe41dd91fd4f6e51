// Package profiles is the external identity collaborator: sign-in, sign-up
// and the profiles table that maps an auth account to a staff role.
package profiles

import (
	"context"
	"errors"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

var (
	ErrNotConfigured      = errors.New("auth backend not configured (demo mode)")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrProfileNotFound    = errors.New("profile not found")
	// ErrProfileCreate is shown verbatim to the person registering.
	ErrProfileCreate = errors.New("Erro ao criar perfil de usuário.")
)

type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile joins an auth account to a role. CompanyID is empty for accounts
// without a tenant.
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	CompanyID string     `json:"company_id,omitempty"`
}

type Backend interface {
	SignIn(ctx context.Context, email, password string) (AuthUser, error)
	SignUp(ctx context.Context, email, password string) (AuthUser, error)
	InsertProfile(ctx context.Context, p Profile) error
	Profile(ctx context.Context, id string) (Profile, error)
}

// Unconfigured stands in when no database is wired. Every call fails.
type Unconfigured struct{}

func (Unconfigured) SignIn(context.Context, string, string) (AuthUser, error) {
	return AuthUser{}, ErrNotConfigured
}

func (Unconfigured) SignUp(context.Context, string, string) (AuthUser, error) {
	return AuthUser{}, ErrNotConfigured
}

func (Unconfigured) InsertProfile(context.Context, Profile) error {
	return ErrNotConfigured
}

func (Unconfigured) Profile(context.Context, string) (Profile, error) {
	return Profile{}, ErrNotConfigured
}
