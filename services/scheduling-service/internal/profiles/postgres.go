package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

// DB is the part of a pgx pool the backend needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS auth_users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY REFERENCES auth_users(id) ON DELETE CASCADE,
	email      TEXT NOT NULL,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL,
	company_id TEXT
);`

type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, schema)
	return err
}

func (p *Postgres) SignIn(ctx context.Context, email, password string) (AuthUser, error) {
	var (
		user AuthUser
		hash string
	)
	err := p.db.QueryRow(ctx, `
		SELECT id, email, password_hash
		FROM auth_users
		WHERE email = $1
	`, model.NormalizeEmail(email)).Scan(&user.ID, &user.Email, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthUser{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return AuthUser{}, ErrInvalidCredentials
	}
	return user, nil
}

func (p *Postgres) SignUp(ctx context.Context, email, password string) (AuthUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AuthUser{}, err
	}
	user := AuthUser{ID: uuid.NewString(), Email: model.NormalizeEmail(email)}
	_, err = p.db.Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash)
		VALUES ($1, $2, $3)
	`, user.ID, user.Email, string(hash))
	if isUniqueViolation(err) {
		return AuthUser{}, ErrEmailTaken
	}
	if err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (p *Postgres) InsertProfile(ctx context.Context, prof Profile) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO profiles (id, email, name, role, company_id)
		VALUES ($1, $2, $3, $4, $5)
	`, prof.ID, prof.Email, prof.Name, string(prof.Role), nullable(prof.CompanyID))
	return err
}

func (p *Postgres) Profile(ctx context.Context, id string) (Profile, error) {
	var (
		prof Profile
		role string
	)
	err := p.db.QueryRow(ctx, `
		SELECT id, email, name, role, COALESCE(company_id, '')
		FROM profiles
		WHERE id = $1
	`, id).Scan(&prof.ID, &prof.Email, &prof.Name, &role, &prof.CompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	prof.Role = model.Role(role)
	return prof, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
