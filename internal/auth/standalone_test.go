package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newStandalone(t *testing.T) *standaloneProvider {
	t.Helper()
	p, err := NewStandaloneProvider("", zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build standalone provider: %v", err)
	}
	return p
}

func TestStandalone_SeedAccountSignIn(t *testing.T) {
	p := newStandalone(t)

	session, err := p.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})
	if err != nil {
		t.Fatalf("seed account sign-in failed: %v", err)
	}

	if session.User.ID != "demo-user-1" {
		t.Errorf("expected seed user id demo-user-1, got %q", session.User.ID)
	}
	if session.User.Name != "Demo Farmer" {
		t.Errorf("expected seed display name, got %q", session.User.Name)
	}
	if !session.User.EmailVerified {
		t.Error("seed accounts are always verified")
	}
	if !strings.HasPrefix(session.AccessToken, "demo-token-") {
		t.Errorf("expected demo token, got %q", session.AccessToken)
	}
}

func TestStandalone_SignIn_AutoProvisionsUnknownCredentials(t *testing.T) {
	p := newStandalone(t)

	session, err := p.SignIn(context.Background(), SignInData{Email: "new@x.com", Password: "whatever"})
	if err != nil {
		t.Fatalf("auto-provisioning sign-in failed: %v", err)
	}

	if session.User.Email != "new@x.com" {
		t.Errorf("expected provisioned email, got %q", session.User.Email)
	}
	if session.User.Name != "New" {
		t.Errorf("expected name derived from email local part, got %q", session.User.Name)
	}
	if !strings.HasPrefix(session.User.ID, "user-") {
		t.Errorf("expected generated user id, got %q", session.User.ID)
	}
	if session.AccessToken == "" {
		t.Error("expected a minted token")
	}
}

func TestStandalone_SignUp_MintsSession(t *testing.T) {
	p := newStandalone(t)

	session, advisory, err := p.SignUp(context.Background(), SignUpData{
		Email:    "kisan@example.com",
		Password: "secret1",
		Name:     "Kisan",
		Phone:    "+91 90000 00000",
	})
	if err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	if advisory != "" {
		t.Errorf("standalone sign-up never requires confirmation, got advisory %q", advisory)
	}
	if session == nil || session.AccessToken == "" {
		t.Fatal("expected an immediate session")
	}
	if !strings.HasPrefix(session.User.ID, "demo-user-") {
		t.Errorf("expected generated demo user id, got %q", session.User.ID)
	}
	if session.User.Name != "Kisan" || session.User.Phone != "+91 90000 00000" {
		t.Errorf("expected sign-up fields carried into the user, got %+v", session.User)
	}
}

func TestStandalone_UnavailableOperations(t *testing.T) {
	p := newStandalone(t)
	ctx := context.Background()

	if _, err := p.OAuthURL(ctx, "google"); err == nil {
		t.Error("OAuth must be rejected in standalone mode")
	} else if !strings.Contains(err.Error(), "Google sign-in not available") {
		t.Errorf("expected capitalized provider in error, got %q", err.Error())
	}

	if err := p.ResetPassword(ctx, "farmer@demo.com"); err == nil {
		t.Error("password reset must be rejected in standalone mode")
	}
	if err := p.UpdatePassword(ctx, "newpass1"); err == nil {
		t.Error("password update must be rejected in standalone mode")
	}
}

func TestStandalone_FetchSessionHasNoBackend(t *testing.T) {
	p := newStandalone(t)

	if _, err := p.FetchSession(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestStandalone_SeedAccountsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	contents := `accounts:
  - email: override@demo.com
    password: override1
    user:
      id: override-user
      name: Override User
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write override file: %v", err)
	}

	p, err := NewStandaloneProvider(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to build provider from override file: %v", err)
	}

	session, err := p.SignIn(context.Background(), SignInData{Email: "override@demo.com", Password: "override1"})
	if err != nil {
		t.Fatalf("override account sign-in failed: %v", err)
	}
	if session.User.ID != "override-user" {
		t.Errorf("expected override user, got %q", session.User.ID)
	}
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"new@x.com", "New"},
		{"ramesh.kumar@example.com", "Ramesh.kumar"},
		{"@example.com", "User"},
		{"", "User"},
	}

	for _, tt := range tests {
		if got := nameFromEmail(tt.email); got != tt.want {
			t.Errorf("nameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
