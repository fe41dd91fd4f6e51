//go:build demo

package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
)

// DemoCompanyID is assigned to company admins invented at login.
const DemoCompanyID = "c1"

// DemoAcceptAny ignores passwords: a known email logs in as its owner and an
// unknown one becomes a new identity named after the email's local part.
type DemoAcceptAny struct {
	roster Roster
	now    func() time.Time
}

func NewStrategy(roster Roster, _ profiles.Backend) AuthStrategy {
	return &DemoAcceptAny{roster: roster, now: time.Now}
}

func (d *DemoAcceptAny) Name() string { return "demo" }

func (d *DemoAcceptAny) Authenticate(_ context.Context, c Credentials) (Identity, error) {
	email := model.NormalizeEmail(c.Email)
	if email == "" {
		return Identity{}, ErrInvalidCredentials
	}
	name, _, _ := strings.Cut(email, "@")

	if c.Role == model.RoleClient {
		client, ok := d.roster.ClientByEmail(email)
		if !ok {
			client = model.ClientUser{ID: "cli_" + uuid.NewString(), Name: name, Email: email, CreatedAt: d.now().UTC()}
			d.roster.AddClient(client)
		}
		pub := client.Public()
		return Identity{Client: &pub}, nil
	}

	user, ok := d.roster.UserByEmail(email)
	if !ok {
		user = model.User{ID: "usr_" + uuid.NewString(), Name: name, Email: email, Role: c.Role}
		if c.Role == model.RoleCompanyAdmin {
			user.CompanyID = DemoCompanyID
		}
		d.roster.AddUser(user)
	}
	return Identity{User: &user}, nil
}
