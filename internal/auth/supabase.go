package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
)

const (
	// refreshLeeway is how long before access-token expiry the background
	// refresh fires.
	refreshLeeway = 60 * time.Second
	// minRefreshDelay floors the refresh timer so a token that is already
	// near expiry still gets one scheduled refresh instead of a hot loop.
	minRefreshDelay = 5 * time.Second

	supabaseTimeout = 15 * time.Second
)

// supabaseProvider talks to a Supabase (GoTrue) auth backend over REST.
// It owns the provider-side credential state (access and refresh tokens),
// runs a background refresh loop scheduled off the access token's expiry,
// and pushes provider-driven transitions on its event channel: SIGNED_IN
// when a persisted session is restored, TOKEN_REFRESHED after a successful
// background refresh, SIGNED_OUT when the refresh token is rejected.
type supabaseProvider struct {
	baseURL    string
	anonKey    string
	redirectTo string
	httpClient *http.Client
	logger     zerolog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	refreshTimer *time.Timer

	events    chan ProviderEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewSupabaseProvider creates the embedded-mode provider. When the config
// carries a refresh token a best-effort session restore runs in the
// background; the restored session arrives as a SIGNED_IN event.
func NewSupabaseProvider(cfg config.SupabaseConfig, logger zerolog.Logger) *supabaseProvider {
	p := &supabaseProvider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		redirectTo: cfg.RedirectURL,
		httpClient: &http.Client{Timeout: supabaseTimeout},
		logger:     logger.With().Str("component", "auth-supabase").Logger(),
		events:     make(chan ProviderEvent, 8),
		done:       make(chan struct{}),
	}

	if cfg.RefreshToken != "" {
		go p.restoreSession(cfg.RefreshToken)
	}

	return p
}

func (p *supabaseProvider) Mode() Mode {
	return ModeEmbedded
}

// gotrueUser is the GoTrue wire representation of a user
type gotrueUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
}

// tokenResponse covers both GoTrue session responses and the bare user
// object /signup returns when email confirmation is pending (AccessToken
// empty, User nil, top-level user fields set).
type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *gotrueUser `json:"user"`

	// Set when the response body is the user object itself
	ID string `json:"id"`
}

func (p *supabaseProvider) SignUp(ctx context.Context, data SignUpData) (*ProviderSession, string, error) {
	body := map[string]any{
		"email":    data.Email,
		"password": data.Password,
		"data": map[string]any{
			"name":  data.Name,
			"phone": data.Phone,
		},
	}

	var resp tokenResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, "", err
	}

	if resp.AccessToken == "" || resp.User == nil {
		// Registration accepted but no session issued: the project requires
		// email confirmation before sign-in.
		return nil, "Please check your email to confirm your account.", nil
	}

	p.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	return &ProviderSession{User: p.mapUser(*resp.User), AccessToken: resp.AccessToken}, "", nil
}

func (p *supabaseProvider) SignIn(ctx context.Context, data SignInData) (*ProviderSession, error) {
	body := map[string]string{
		"email":    data.Email,
		"password": data.Password,
	}

	var resp tokenResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, fmt.Errorf("authentication failed")
	}

	p.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	return &ProviderSession{User: p.mapUser(*resp.User), AccessToken: resp.AccessToken}, nil
}

func (p *supabaseProvider) OAuthURL(ctx context.Context, oauthProvider string) (string, error) {
	authorize := fmt.Sprintf("%s/auth/v1/authorize?provider=%s", p.baseURL, url.QueryEscape(oauthProvider))
	if p.redirectTo != "" {
		authorize += "&redirect_to=" + url.QueryEscape(p.redirectTo)
	}
	return authorize, nil
}

func (p *supabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	token := p.accessToken
	if accessToken != "" {
		token = accessToken
	}
	p.mu.Unlock()

	// Provider-side state is dropped regardless of the remote outcome so a
	// failed logout call cannot resurrect the session through the refresh
	// loop.
	defer p.clearTokens()

	if token == "" {
		return nil
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil, nil)
}

func (p *supabaseProvider) FetchSession(ctx context.Context) (*ProviderSession, error) {
	p.mu.Lock()
	token := p.accessToken
	p.mu.Unlock()

	if token == "" {
		return nil, ErrNoSession
	}

	var user gotrueUser
	err := p.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user)
	if err != nil {
		// The access token may have just expired; try one refresh before
		// giving up.
		if token, err = p.refreshNow(ctx); err != nil {
			return nil, err
		}
		if err = p.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user); err != nil {
			return nil, err
		}
	}

	return &ProviderSession{User: p.mapUser(user), AccessToken: token}, nil
}

func (p *supabaseProvider) ResetPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return p.do(ctx, http.MethodPost, "/auth/v1/recover", "", body, nil)
}

func (p *supabaseProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	token := p.accessToken
	p.mu.Unlock()
	if token == "" {
		return ErrNoSession
	}

	body := map[string]string{"password": newPassword}
	return p.do(ctx, http.MethodPut, "/auth/v1/user", token, body, nil)
}

func (p *supabaseProvider) UpdateProfile(ctx context.Context, updates ProfileUpdate) error {
	p.mu.Lock()
	token := p.accessToken
	p.mu.Unlock()
	if token == "" {
		// Nothing to update remotely; the manager treats this as a no-op.
		return nil
	}

	data := map[string]any{}
	if updates.Name != nil {
		data["name"] = *updates.Name
	}
	if updates.Phone != nil {
		data["phone"] = *updates.Phone
	}
	if len(data) == 0 {
		return nil
	}

	body := map[string]any{"data": data}
	return p.do(ctx, http.MethodPut, "/auth/v1/user", token, body, nil)
}

func (p *supabaseProvider) Events() <-chan ProviderEvent {
	return p.events
}

func (p *supabaseProvider) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		if p.refreshTimer != nil {
			p.refreshTimer.Stop()
			p.refreshTimer = nil
		}
		p.mu.Unlock()
		close(p.done)
	})
	return nil
}

// restoreSession exchanges a persisted refresh token for a fresh session and
// announces it as SIGNED_IN. Failures are logged and dropped: an expired
// stored token simply means starting unauthenticated.
func (p *supabaseProvider) restoreSession(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), supabaseTimeout)
	defer cancel()

	resp, err := p.refreshGrant(ctx, refreshToken)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to restore session")
		return
	}

	p.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)

	if resp.User != nil {
		user := p.mapUser(*resp.User)
		p.emit(ProviderEvent{Type: EventSignedIn, User: &user, AccessToken: resp.AccessToken})
		p.logger.Info().Str("user_id", user.ID).Msg("Restored persisted session")
	}
}

// refreshNow performs an immediate refresh-token exchange and returns the
// new access token.
func (p *supabaseProvider) refreshNow(ctx context.Context) (string, error) {
	p.mu.Lock()
	refreshToken := p.refreshToken
	p.mu.Unlock()

	if refreshToken == "" {
		return "", ErrNoSession
	}

	resp, err := p.refreshGrant(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	p.storeTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	return resp.AccessToken, nil
}

func (p *supabaseProvider) refreshGrant(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var resp tokenResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh grant returned no access token")
	}
	return &resp, nil
}

// storeTokens records the session credentials and arms the background
// refresh timer ahead of expiry.
func (p *supabaseProvider) storeTokens(accessToken, refreshToken string, expiresIn int) {
	delay := refreshDelay(accessToken, expiresIn)

	p.mu.Lock()
	p.accessToken = accessToken
	if refreshToken != "" {
		p.refreshToken = refreshToken
	}
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
	}
	p.refreshTimer = time.AfterFunc(delay, p.backgroundRefresh)
	p.mu.Unlock()
}

func (p *supabaseProvider) clearTokens() {
	p.mu.Lock()
	p.accessToken = ""
	p.refreshToken = ""
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
		p.refreshTimer = nil
	}
	p.mu.Unlock()
}

// backgroundRefresh runs when the refresh timer fires. A successful exchange
// is announced as TOKEN_REFRESHED; a rejected refresh token means the
// session is gone, announced as SIGNED_OUT.
func (p *supabaseProvider) backgroundRefresh() {
	select {
	case <-p.done:
		return
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), supabaseTimeout)
	defer cancel()

	token, err := p.refreshNow(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Background token refresh failed, session expired")
		p.clearTokens()
		p.emit(ProviderEvent{Type: EventSignedOut})
		return
	}

	p.logger.Debug().Msg("Access token refreshed")
	p.emit(ProviderEvent{Type: EventTokenRefreshed, AccessToken: token})
}

func (p *supabaseProvider) emit(ev ProviderEvent) {
	select {
	case <-p.done:
	case p.events <- ev:
	}
}

// refreshDelay derives the refresh timer delay from the access token's exp
// claim, falling back to the advertised expires_in. The token signature is
// deliberately not verified here: only the backend can verify it, this is
// scheduling metadata.
func refreshDelay(accessToken string, expiresIn int) time.Duration {
	expiry := time.Now().Add(time.Duration(expiresIn) * time.Second)

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err == nil {
		if claims.ExpiresAt != nil {
			expiry = claims.ExpiresAt.Time
		}
	}

	delay := time.Until(expiry) - refreshLeeway
	if delay < minRefreshDelay {
		delay = minRefreshDelay
	}
	return delay
}

// mapUser converts a GoTrue user into the application identity record
func (p *supabaseProvider) mapUser(u gotrueUser) AuthUser {
	name, _ := u.UserMetadata["name"].(string)
	if name == "" {
		if local, _, _ := strings.Cut(u.Email, "@"); local != "" {
			name = local
		} else {
			name = "User"
		}
	}

	phone, _ := u.UserMetadata["phone"].(string)
	if phone == "" {
		phone = u.Phone
	}

	return AuthUser{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         phone,
		Name:          name,
		EmailVerified: u.EmailConfirmedAt != nil,
		CreatedAt:     u.CreatedAt,
	}
}

// do performs one GoTrue REST call. authToken selects the bearer credential;
// empty means the project anon key.
func (p *supabaseProvider) do(ctx context.Context, method, path, authToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", p.anonKey)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.anonKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseGoTrueError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseGoTrueError extracts the human-readable message GoTrue puts in one of
// several fields depending on the endpoint and version.
func parseGoTrueError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, msg := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.ErrorField} {
			if msg != "" {
				return fmt.Errorf("%s", msg)
			}
		}
	}

	return fmt.Errorf("auth request failed (status %d)", resp.StatusCode)
}
