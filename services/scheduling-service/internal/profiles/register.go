package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

type Registration struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

var ErrInvalidRegistration = errors.New("name, email, password and role are required")

// Register creates the auth account, then its profile. A company admin gets
// a fresh company id; other roles get none.
func Register(ctx context.Context, b Backend, r Registration) (Profile, error) {
	r.Email = model.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Email == "" || r.Password == "" || r.Name == "" || !r.Role.Valid() {
		return Profile{}, ErrInvalidRegistration
	}

	account, err := b.SignUp(ctx, r.Email, r.Password)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{ID: account.ID, Email: account.Email, Name: r.Name, Role: r.Role}
	if r.Role == model.RoleCompanyAdmin {
		p.CompanyID = "comp_" + uuid.NewString()
	}
	if err := b.InsertProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrProfileCreate, err)
	}
	return p, nil
}
