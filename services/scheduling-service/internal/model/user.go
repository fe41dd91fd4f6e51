package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleMasterAdmin  Role = "MASTER_ADMIN"
	RoleCompanyAdmin Role = "COMPANY_ADMIN"
	RoleProvider     Role = "PROVIDER"
	// RoleClient only names the client identity space at login; no User carries it.
	RoleClient Role = "CLIENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMasterAdmin, RoleCompanyAdmin, RoleProvider, RoleClient:
		return true
	}
	return false
}

// NormalizeEmail is the form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r Role) IsStaff() bool {
	return r == RoleMasterAdmin || r == RoleCompanyAdmin || r == RoleProvider
}

// User is a staff member. CompanyID is empty only for MASTER_ADMIN.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// ClientUser lives in its own identity space; a client may share an email
// with a staff User.
type ClientUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public strips the credential before the client is sent to a browser.
func (c ClientUser) Public() ClientUser {
	c.PasswordHash = ""
	return c
}
