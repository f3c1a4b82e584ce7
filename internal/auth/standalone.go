package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	_ "embed"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed seed_accounts.yaml
var seedAccountsYAML []byte

// seedAccount is one entry of the fixed credential table used when no
// backend is configured. The table is read once at construction and never
// mutated at runtime.
type seedAccount struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	User     struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Phone string `yaml:"phone"`
	} `yaml:"user"`
}

type seedAccountsFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

// standaloneProvider serves identity operations entirely from memory.
// Sign-in deliberately auto-provisions an account for any credential pair
// not in the seed table: this mode exists for frictionless local demos, not
// for real authentication. Operations that require a real backend (OAuth,
// password reset/update) are rejected.
type standaloneProvider struct {
	accounts []seedAccount
	logger   zerolog.Logger
}

// NewStandaloneProvider builds the in-memory provider. The seed table is
// embedded in the binary; overridePath, when non-empty, points to a YAML
// file replacing it.
func NewStandaloneProvider(overridePath string, logger zerolog.Logger) (*standaloneProvider, error) {
	raw := seedAccountsYAML
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed accounts file: %w", err)
		}
		raw = data
	}

	var file seedAccountsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed accounts: %w", err)
	}

	return &standaloneProvider{
		accounts: file.Accounts,
		logger:   logger.With().Str("component", "auth-standalone").Logger(),
	}, nil
}

func (p *standaloneProvider) Mode() Mode {
	return ModeStandalone
}

func (p *standaloneProvider) SignUp(ctx context.Context, data SignUpData) (*ProviderSession, string, error) {
	user := AuthUser{
		ID:            fmt.Sprintf("demo-user-%s", ulid.Make()),
		Email:         data.Email,
		Name:          data.Name,
		Phone:         data.Phone,
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	return &ProviderSession{User: user, AccessToken: mintDemoToken()}, "", nil
}

func (p *standaloneProvider) SignIn(ctx context.Context, data SignInData) (*ProviderSession, error) {
	for _, account := range p.accounts {
		if account.Email == data.Email && account.Password == data.Password {
			user := AuthUser{
				ID:            account.User.ID,
				Email:         account.Email,
				Name:          account.User.Name,
				Phone:         account.User.Phone,
				EmailVerified: true,
				CreatedAt:     time.Now().UTC(),
			}
			return &ProviderSession{User: user, AccessToken: mintDemoToken()}, nil
		}
	}

	// Unknown credentials auto-provision a fresh account instead of being
	// rejected. Intentional permissive behavior for demos; never enable
	// standalone mode anywhere that needs real authentication.
	user := AuthUser{
		ID:            fmt.Sprintf("user-%s", ulid.Make()),
		Email:         data.Email,
		Name:          nameFromEmail(data.Email),
		EmailVerified: true,
		CreatedAt:     time.Now().UTC(),
	}
	p.logger.Info().Str("email", data.Email).Msg("Auto-provisioned standalone account")
	return &ProviderSession{User: user, AccessToken: mintDemoToken()}, nil
}

func (p *standaloneProvider) OAuthURL(ctx context.Context, oauthProvider string) (string, error) {
	return "", fmt.Errorf("%s sign-in not available in standalone mode. Use farmer@demo.com / demo123", capitalize(oauthProvider))
}

func (p *standaloneProvider) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func (p *standaloneProvider) FetchSession(ctx context.Context) (*ProviderSession, error) {
	// There is no backend to query; the manager falls back to whatever it
	// has cached.
	return nil, ErrNoSession
}

func (p *standaloneProvider) ResetPassword(ctx context.Context, email string) error {
	return fmt.Errorf("password reset not available in standalone mode")
}

func (p *standaloneProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	return fmt.Errorf("password update not available in standalone mode")
}

func (p *standaloneProvider) UpdateProfile(ctx context.Context, updates ProfileUpdate) error {
	// The manager owns the merge into the in-memory session.
	return nil
}

func (p *standaloneProvider) Events() <-chan ProviderEvent {
	return nil
}

func (p *standaloneProvider) Close() error {
	return nil
}

func mintDemoToken() string {
	return fmt.Sprintf("demo-token-%s", ulid.Make())
}

// nameFromEmail derives a display name from the capitalized local part of an
// email address ("new@x.com" -> "New").
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "User"
	}
	return capitalize(local)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
