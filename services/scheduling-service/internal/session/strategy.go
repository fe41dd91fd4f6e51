package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
)

type Credentials struct {
	Email    string
	Password string
	Role     model.Role
}

// Identity is the outcome of a successful authentication. Exactly one of
// User and Client is set.
type Identity struct {
	User   *model.User
	Client *model.ClientUser
}

// AuthStrategy decides who a set of credentials belongs to. Which strategy a
// binary carries is fixed at build time by NewStrategy.
type AuthStrategy interface {
	Name() string
	Authenticate(ctx context.Context, c Credentials) (Identity, error)
}

// Roster is the identity directory shared by the strategies and the manager.
type Roster interface {
	UserByEmail(email string) (model.User, bool)
	ClientByEmail(email string) (model.ClientUser, bool)
	ClientByID(id string) (model.ClientUser, bool)
	AddUser(user model.User)
	AddClient(client model.ClientUser)
	UpdateClientProfile(client model.ClientUser)
}

// RealCredentialCheck verifies passwords. Clients with a local hash are
// checked against it; everyone else goes through the profiles backend.
type RealCredentialCheck struct {
	roster  Roster
	backend profiles.Backend
	now     func() time.Time
}

func NewRealCredentialCheck(roster Roster, backend profiles.Backend) *RealCredentialCheck {
	if backend == nil {
		backend = profiles.Unconfigured{}
	}
	return &RealCredentialCheck{roster: roster, backend: backend, now: time.Now}
}

func (r *RealCredentialCheck) Name() string { return "credentials" }

func (r *RealCredentialCheck) Authenticate(ctx context.Context, c Credentials) (Identity, error) {
	email := model.NormalizeEmail(c.Email)
	if email == "" || c.Password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	if c.Role == model.RoleClient {
		if client, ok := r.roster.ClientByEmail(email); ok && client.PasswordHash != "" {
			if bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(c.Password)) != nil {
				return Identity{}, ErrInvalidCredentials
			}
			pub := client.Public()
			return Identity{Client: &pub}, nil
		}
	}

	account, err := r.backend.SignIn(ctx, email, c.Password)
	if err != nil {
		return Identity{}, mapBackendErr(err)
	}
	prof, err := r.backend.Profile(ctx, account.ID)
	if err != nil {
		return Identity{}, mapBackendErr(err)
	}

	if c.Role == model.RoleClient {
		client, ok := r.roster.ClientByEmail(email)
		if !ok {
			client = model.ClientUser{ID: account.ID, Name: prof.Name, Email: email, CreatedAt: r.now().UTC()}
			r.roster.AddClient(client)
		}
		pub := client.Public()
		return Identity{Client: &pub}, nil
	}

	if prof.Role != c.Role {
		return Identity{}, ErrInvalidCredentials
	}
	user, ok := r.roster.UserByEmail(email)
	if !ok {
		user = model.User{ID: prof.ID, Name: prof.Name, Email: email, Role: prof.Role, CompanyID: prof.CompanyID}
		r.roster.AddUser(user)
	}
	return Identity{User: &user}, nil
}

func mapBackendErr(err error) error {
	switch {
	case errors.Is(err, profiles.ErrInvalidCredentials), errors.Is(err, profiles.ErrProfileNotFound):
		return ErrInvalidCredentials
	default:
		return err
	}
}

func NewID() string {
	return uuid.NewString()
}
