package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"devplanet/internal/apiclient"
	"devplanet/internal/slogutil"
)

type fakeLoginAPI struct {
	resp *apiclient.LoginResponse
	err  error
}

func (f *fakeLoginAPI) Login(ctx context.Context, email, password string) (*apiclient.LoginResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "token.json"))
}

func TestLogin_Success(t *testing.T) {
	api := &fakeLoginAPI{resp: &apiclient.LoginResponse{
		AccessToken: "tok-123",
		TokenType:   "bearer",
		User:        apiclient.User{ID: "u1", Username: "kepler"},
	}}
	store := tempStore(t)
	m := NewManager(api, store, slogutil.NewDiscardLogger())

	if got := m.State(); got != StateAnonymous {
		t.Fatalf("initial state = %v, want anonymous", got)
	}
	if err := m.Login(context.Background(), "k@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if got := m.State(); got != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", got)
	}
	if got := m.Token(); got != "tok-123" {
		t.Errorf("Token = %q", got)
	}
	user, ok := m.User()
	if !ok || user.Username != "kepler" {
		t.Errorf("User = %+v, ok = %v", user, ok)
	}

	// Token must land in the disk cache.
	cached, err := store.Load()
	if err != nil {
		t.Fatalf("Load cached: %v", err)
	}
	if cached.AccessToken != "tok-123" {
		t.Errorf("cached token = %q", cached.AccessToken)
	}
}

func TestLogin_Failure(t *testing.T) {
	api := &fakeLoginAPI{err: errors.New("invalid credentials")}
	m := NewManager(api, tempStore(t), slogutil.NewDiscardLogger())

	if err := m.Login(context.Background(), "k@example.com", "wrong"); err == nil {
		t.Fatal("Login should fail")
	}
	if got := m.State(); got != StateAnonymous {
		t.Errorf("state after failed login = %v, want anonymous", got)
	}
	if got := m.Token(); got != "" {
		t.Errorf("Token = %q, want empty", got)
	}
}

func TestLoadCached(t *testing.T) {
	store := tempStore(t)
	creds := &Credentials{
		AccessToken: "tok-456",
		User:        apiclient.User{ID: "u2", Username: "brahe"},
	}
	if err := store.Save(creds); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m := NewManager(&fakeLoginAPI{}, store, slogutil.NewDiscardLogger())
	if err := m.LoadCached(); err != nil {
		t.Fatalf("LoadCached failed: %v", err)
	}
	if got := m.Token(); got != "tok-456" {
		t.Errorf("Token = %q", got)
	}
	if got := m.State(); got != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", got)
	}
}

func TestLoadCached_Missing(t *testing.T) {
	m := NewManager(&fakeLoginAPI{}, tempStore(t), slogutil.NewDiscardLogger())

	err := m.LoadCached()
	if !errors.Is(err, ErrNoCachedToken) {
		t.Errorf("LoadCached = %v, want ErrNoCachedToken", err)
	}
	if got := m.State(); got != StateAnonymous {
		t.Errorf("state = %v, want anonymous", got)
	}
}

func TestLogout(t *testing.T) {
	store := tempStore(t)
	api := &fakeLoginAPI{resp: &apiclient.LoginResponse{AccessToken: "tok-123"}}
	m := NewManager(api, store, slogutil.NewDiscardLogger())

	if err := m.Login(context.Background(), "k@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if got := m.State(); got != StateAnonymous {
		t.Errorf("state = %v, want anonymous", got)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoCachedToken) {
		t.Errorf("cache Load after logout = %v, want ErrNoCachedToken", err)
	}
}

func TestInvalidate(t *testing.T) {
	store := tempStore(t)
	api := &fakeLoginAPI{resp: &apiclient.LoginResponse{AccessToken: "tok-123"}}
	m := NewManager(api, store, slogutil.NewDiscardLogger())

	if err := m.Login(context.Background(), "k@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	m.Invalidate()
	if got := m.Token(); got != "" {
		t.Errorf("Token after Invalidate = %q, want empty", got)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoCachedToken) {
		t.Errorf("stale token must not survive on disk, got %v", err)
	}
}

func TestRequireUser(t *testing.T) {
	api := &fakeLoginAPI{resp: &apiclient.LoginResponse{
		AccessToken: "tok-123",
		User:        apiclient.User{ID: "u1", Username: "kepler"},
	}}
	m := NewManager(api, tempStore(t), slogutil.NewDiscardLogger())

	if _, err := m.RequireUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RequireUser while anonymous = %v, want ErrNotAuthenticated", err)
	}

	if err := m.Login(context.Background(), "k@example.com", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	user, err := m.RequireUser()
	if err != nil {
		t.Fatalf("RequireUser after login: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user.ID = %q, want u1", user.ID)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := m.RequireUser(); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RequireUser after logout = %v, want ErrNotAuthenticated", err)
	}
}

func TestStore_FileMode(t *testing.T) {
	store := tempStore(t)
	if err := store.Save(&Credentials{AccessToken: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(store.path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token cache mode = %o, want 0600", perm)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"eyJhbGciOiJIUzI1NiJ9.payload", "eyJhbGci****...****"},
		{"short", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}
