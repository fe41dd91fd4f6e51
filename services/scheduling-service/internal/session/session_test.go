package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/profiles"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

var testNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend knows one account per email with a fixed password.
type fakeBackend struct {
	profiles.Unconfigured
	accounts map[string]profiles.Profile
	password string
}

func (f *fakeBackend) SignIn(_ context.Context, email, password string) (profiles.AuthUser, error) {
	p, ok := f.accounts[email]
	if !ok || password != f.password {
		return profiles.AuthUser{}, profiles.ErrInvalidCredentials
	}
	return profiles.AuthUser{ID: p.ID, Email: email}, nil
}

func (f *fakeBackend) Profile(_ context.Context, id string) (profiles.Profile, error) {
	for _, p := range f.accounts {
		if p.ID == id {
			return p, nil
		}
	}
	return profiles.Profile{}, profiles.ErrProfileNotFound
}

func newManager(t *testing.T, backend profiles.Backend) (*Manager, *store.Store) {
	t.Helper()
	st := store.New(store.Seed(testNow, time.UTC))
	return NewManager(NewMemoryKV(), NewRealCredentialCheck(st, backend), st, discardLogger()), st
}

func TestRestoreEmptySessionIsAnonymous(t *testing.T) {
	m, _ := newManager(t, nil)
	state, err := m.Restore(context.Background(), "sid")
	require.NoError(t, err)
	assert.True(t, state.Anonymous())
}

func TestClientLoginWithLocalPassword(t *testing.T) {
	m, _ := newManager(t, nil)
	ctx := context.Background()

	state, err := m.Login(ctx, "sid", Credentials{Email: "Alice@Email.com", Password: store.DemoClientPassword, Role: model.RoleClient})
	require.NoError(t, err)
	require.NotNil(t, state.Client)
	assert.Equal(t, "cli1", state.Client.ID)
	assert.Empty(t, state.Client.PasswordHash)

	restored, err := m.Restore(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, restored.Client)
	assert.Equal(t, "cli1", restored.Client.ID)
	assert.Nil(t, restored.User)

	_, err = m.Login(ctx, "sid2", Credentials{Email: "alice@email.com", Password: "wrong", Role: model.RoleClient})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStaffLoginWithoutBackendFails(t *testing.T) {
	m, _ := newManager(t, nil)
	_, err := m.Login(context.Background(), "sid", Credentials{Email: "sarah@techhealth.com", Password: "x", Role: model.RoleCompanyAdmin})
	assert.ErrorIs(t, err, profiles.ErrNotConfigured)

	state, err := m.Restore(context.Background(), "sid")
	require.NoError(t, err)
	assert.True(t, state.Anonymous())
}

func TestStaffLoginThroughBackend(t *testing.T) {
	backend := &fakeBackend{
		password: "pw",
		accounts: map[string]profiles.Profile{
			"sarah@techhealth.com": {ID: "acc2", Email: "sarah@techhealth.com", Name: "Sarah", Role: model.RoleCompanyAdmin, CompanyID: "c1"},
			"nova@clinic.com":      {ID: "acc9", Email: "nova@clinic.com", Name: "Nova", Role: model.RoleProvider, CompanyID: "c1"},
		},
	}
	m, st := newManager(t, backend)
	ctx := context.Background()

	state, err := m.Login(ctx, "sid", Credentials{Email: "sarah@techhealth.com", Password: "pw", Role: model.RoleCompanyAdmin})
	require.NoError(t, err)
	assert.Equal(t, "u2", state.User.ID, "seeded staff keep their roster id")

	state, err = m.Login(ctx, "sid-b", Credentials{Email: "nova@clinic.com", Password: "pw", Role: model.RoleProvider})
	require.NoError(t, err)
	assert.Equal(t, "acc9", state.User.ID)
	_, ok := st.UserByEmail("nova@clinic.com")
	assert.True(t, ok)

	_, err = m.Login(ctx, "sid-c", Credentials{Email: "nova@clinic.com", Password: "pw", Role: model.RoleMasterAdmin})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "sid-d", Credentials{Email: "nova@clinic.com", Password: "pw", Role: "OWNER"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestUserTakesPrecedenceAndLogoutOrder(t *testing.T) {
	kv := NewMemoryKV()
	st := store.New(store.Seed(testNow, time.UTC))
	m := NewManager(kv, NewRealCredentialCheck(st, nil), st, discardLogger())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, m.key("sid", UserKey), []byte(`{"id":"u2","role":"COMPANY_ADMIN","company_id":"c1"}`)))
	_, err := m.Login(ctx, "sid", Credentials{Email: "roberto@email.com", Password: store.DemoClientPassword, Role: model.RoleClient})
	require.NoError(t, err)

	state, err := m.Restore(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, state.User)
	assert.Nil(t, state.Client)

	require.NoError(t, m.Logout(ctx, "sid"))
	state, err = m.Restore(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, state.Client)
	assert.Equal(t, "cli2", state.Client.ID)

	require.NoError(t, kv.Set(ctx, m.key("sid", UserKey), []byte(`{"id":"u2"}`)))
	require.NoError(t, m.ClientLogout(ctx, "sid"))
	state, err = m.Restore(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, state.Anonymous())
}

func TestRestoreDropsCorruptEntry(t *testing.T) {
	kv := NewMemoryKV()
	st := store.New(store.Seed(testNow, time.UTC))
	m := NewManager(kv, NewRealCredentialCheck(st, nil), st, discardLogger())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, m.key("sid", UserKey), []byte("{not json")))
	state, err := m.Restore(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, state.Anonymous())

	_, err = kv.Get(ctx, m.key("sid", UserKey))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestUpdateClientProfileKeepsCredential(t *testing.T) {
	m, st := newManager(t, nil)
	ctx := context.Background()

	updated, err := m.UpdateClientProfile(ctx, "sid", model.ClientUser{ID: "cli1", Name: "Alice F.", Email: "alice@email.com", Phone: "5511000000000"})
	require.NoError(t, err)
	assert.Empty(t, updated.PasswordHash)

	stored, ok := st.ClientByID("cli1")
	require.True(t, ok)
	assert.Equal(t, "Alice F.", stored.Name)
	assert.NotEmpty(t, stored.PasswordHash)

	state, err := m.Restore(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, state.Client)
	assert.Equal(t, "5511000000000", state.Client.Phone)

	_, err = m.UpdateClientProfile(ctx, "sid", model.ClientUser{ID: "nobody"})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestMixedCaseEmailStillLogsIn(t *testing.T) {
	m, st := newManager(t, nil)
	ctx := context.Background()

	_, err := m.UpdateClientProfile(ctx, "sid", model.ClientUser{ID: "cli1", Name: "Alice", Email: "Alice@Email.com"})
	require.NoError(t, err)
	stored, _ := st.ClientByID("cli1")
	assert.Equal(t, "alice@email.com", stored.Email)

	state, err := m.Login(ctx, "sid2", Credentials{Email: "Alice@Email.com", Password: store.DemoClientPassword, Role: model.RoleClient})
	require.NoError(t, err)
	require.NotNil(t, state.Client)
	assert.Equal(t, "cli1", state.Client.ID)

	_, err = m.UpdateClientProfile(ctx, "sid3", model.ClientUser{ID: "cli2", Name: "Roberto", Email: "ALICE@email.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	roberto, _ := st.ClientByID("cli2")
	assert.Equal(t, "roberto@email.com", roberto.Email)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	kv := NewRedisKV(rdb, time.Hour)
	ctx := context.Background()

	_, err := kv.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	require.NoError(t, kv.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestLoadReturnsBothIdentities(t *testing.T) {
	kv := NewMemoryKV()
	st := store.New(store.Seed(testNow, time.UTC))
	m := NewManager(kv, NewRealCredentialCheck(st, nil), st, discardLogger())
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, m.key("sid", UserKey), []byte(`{"id":"u3","role":"PROVIDER","company_id":"c1"}`)))
	_, err := m.Login(ctx, "sid", Credentials{Email: "alice@email.com", Password: store.DemoClientPassword, Role: model.RoleClient})
	require.NoError(t, err)

	both, err := m.Load(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, both.User)
	require.NotNil(t, both.Client)
	assert.Equal(t, "u3", both.User.ID)
	assert.Equal(t, "cli1", both.Client.ID)
}
