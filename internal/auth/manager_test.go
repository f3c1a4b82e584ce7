package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProvider is a scriptable Provider for manager tests
type fakeProvider struct {
	mode Mode

	signUpSession  *ProviderSession
	signUpAdvisory string
	signUpErr      error

	signInSession *ProviderSession
	signInErr     error

	oauthURL string
	oauthErr error

	signOutErr error

	fetchSession *ProviderSession
	fetchErr     error

	resetErr         error
	updatePassErr    error
	updateProfileErr error

	events chan ProviderEvent

	mu           sync.Mutex
	signOutCalls int
}

func (f *fakeProvider) Mode() Mode {
	if f.mode == "" {
		return ModeStandalone
	}
	return f.mode
}

func (f *fakeProvider) SignUp(ctx context.Context, data SignUpData) (*ProviderSession, string, error) {
	return f.signUpSession, f.signUpAdvisory, f.signUpErr
}

func (f *fakeProvider) SignIn(ctx context.Context, data SignInData) (*ProviderSession, error) {
	return f.signInSession, f.signInErr
}

func (f *fakeProvider) OAuthURL(ctx context.Context, oauthProvider string) (string, error) {
	return f.oauthURL, f.oauthErr
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	f.signOutCalls++
	f.mu.Unlock()
	return f.signOutErr
}

func (f *fakeProvider) FetchSession(ctx context.Context) (*ProviderSession, error) {
	return f.fetchSession, f.fetchErr
}

func (f *fakeProvider) ResetPassword(ctx context.Context, email string) error {
	return f.resetErr
}

func (f *fakeProvider) UpdatePassword(ctx context.Context, newPassword string) error {
	return f.updatePassErr
}

func (f *fakeProvider) UpdateProfile(ctx context.Context, updates ProfileUpdate) error {
	return f.updateProfileErr
}

func (f *fakeProvider) Events() <-chan ProviderEvent {
	if f.events == nil {
		return nil
	}
	return f.events
}

func (f *fakeProvider) Close() error { return nil }

func demoSession() *ProviderSession {
	return &ProviderSession{
		User: AuthUser{
			ID:            "u-1",
			Email:         "farmer@demo.com",
			Name:          "Demo Farmer",
			EmailVerified: true,
			CreatedAt:     time.Now().UTC(),
		},
		AccessToken: "token-1",
	}
}

func newTestManager(t *testing.T, p Provider) *Manager {
	t.Helper()
	m := NewManager(p, zerolog.Nop())
	t.Cleanup(func() { m.Close() })
	return m
}

// recorder collects every notification a subscriber receives
type recorder struct {
	mu    sync.Mutex
	calls []*AuthUser
}

func (r *recorder) callback(u *AuthUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, u)
}

func (r *recorder) snapshot() []*AuthUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*AuthUser(nil), r.calls...)
}

func (r *recorder) waitForCalls(t *testing.T, n int) []*AuthUser {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := r.snapshot(); len(calls) >= n {
			return calls
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d notifications, got %d", n, len(r.snapshot()))
	return nil
}

func TestManager_SignIn_StoresSessionAndNotifiesOnce(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession()}
	m := newTestManager(t, provider)

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	resp := m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	if !resp.Success {
		t.Fatalf("expected success, got error: %s", resp.Error)
	}
	if resp.User == nil || resp.User.ID != "u-1" {
		t.Fatalf("expected user u-1, got %+v", resp.User)
	}
	if resp.AccessToken != "token-1" {
		t.Errorf("expected access token token-1, got %q", resp.AccessToken)
	}

	if !m.IsAuthenticated() {
		t.Error("expected manager to be authenticated")
	}
	if m.GetAccessToken() != "token-1" {
		t.Errorf("expected stored token token-1, got %q", m.GetAccessToken())
	}

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(calls))
	}
	if calls[0] == nil || calls[0].ID != "u-1" {
		t.Errorf("expected notification with user u-1, got %+v", calls[0])
	}
}

func TestManager_SignIn_FailureLeavesNoSession(t *testing.T) {
	provider := &fakeProvider{signInErr: errors.New("invalid credentials")}
	m := newTestManager(t, provider)

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	resp := m.SignIn(context.Background(), SignInData{Email: "x@x.com", Password: "bad"})

	if resp.Success {
		t.Fatal("expected failure")
	}
	if resp.Error != "invalid credentials" {
		t.Errorf("expected provider error text passed through, got %q", resp.Error)
	}
	if resp.User != nil || resp.AccessToken != "" {
		t.Error("failed sign-in must not carry user or token")
	}
	if m.IsAuthenticated() {
		t.Error("failed sign-in must not store a session")
	}
	if len(rec.snapshot()) != 0 {
		t.Error("failed sign-in must not notify subscribers")
	}
}

func TestManager_SignUp_ConfirmationPending(t *testing.T) {
	provider := &fakeProvider{signUpAdvisory: "Please check your email to confirm your account."}
	m := newTestManager(t, provider)

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	resp := m.SignUp(context.Background(), SignUpData{Email: "new@x.com", Password: "secret1", Name: "New"})

	if !resp.Success {
		t.Fatalf("confirmation-pending sign-up must report success, got error: %s", resp.Error)
	}
	if resp.User != nil {
		t.Error("confirmation-pending sign-up must not carry a user")
	}
	if resp.Error != "Please check your email to confirm your account." {
		t.Errorf("expected advisory message, got %q", resp.Error)
	}
	if m.IsAuthenticated() {
		t.Error("no session may be stored while confirmation is pending")
	}
	if len(rec.snapshot()) != 0 {
		t.Error("no notification may fire while confirmation is pending")
	}
}

func TestManager_SignOut_AlwaysClearsLocalState(t *testing.T) {
	tests := []struct {
		name       string
		signOutErr error
	}{
		{name: "remote sign-out succeeds"},
		{name: "remote sign-out fails", signOutErr: errors.New("network down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{signInSession: demoSession(), signOutErr: tt.signOutErr}
			m := newTestManager(t, provider)
			m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

			rec := &recorder{}
			unsubscribe := m.OnAuthStateChange(rec.callback)
			defer unsubscribe()
			replayed := len(rec.snapshot()) // the registration replay

			result := m.SignOut(context.Background())

			if !result.Success {
				t.Fatal("sign-out must always report success")
			}
			if m.IsAuthenticated() {
				t.Error("sign-out must clear the local session")
			}
			if m.GetAccessToken() != "" {
				t.Error("sign-out must clear the stored token")
			}

			calls := rec.snapshot()[replayed:]
			if len(calls) != 1 {
				t.Fatalf("expected exactly 1 sign-out notification, got %d", len(calls))
			}
			if calls[0] != nil {
				t.Errorf("sign-out notification must carry nil user, got %+v", calls[0])
			}
		})
	}
}

func TestManager_OnAuthStateChange_ReplaysExistingSession(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession()}
	m := newTestManager(t, provider)
	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	// The replay is synchronous, no waiting needed
	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("expected immediate replay of the active session, got %d calls", len(calls))
	}
	if calls[0] == nil || calls[0].ID != "u-1" {
		t.Errorf("expected replayed user u-1, got %+v", calls[0])
	}
}

func TestManager_OnAuthStateChange_NoReplayWithoutSession(t *testing.T) {
	m := newTestManager(t, &fakeProvider{})

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	if len(rec.snapshot()) != 0 {
		t.Error("registration without an active session must not invoke the callback")
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession()}
	m := newTestManager(t, provider)

	rec := &recorder{}
	unsubscribe := m.OnAuthStateChange(rec.callback)
	unsubscribe()
	unsubscribe() // second call is a no-op

	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	if len(rec.snapshot()) != 0 {
		t.Error("unsubscribed callback must not be invoked")
	}
}

func TestManager_Notify_RegistrationOrder(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession()}
	m := newTestManager(t, provider)

	var mu sync.Mutex
	var order []string
	m.OnAuthStateChange(func(*AuthUser) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	m.OnAuthStateChange(func(*AuthUser) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
	})

	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected delivery in registration order, got %v", order)
	}
}

func TestManager_ListenerPanicDoesNotBlockOthers(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession()}
	m := newTestManager(t, provider)

	rec := &recorder{}
	m.OnAuthStateChange(func(*AuthUser) { panic("subscriber bug") })
	m.OnAuthStateChange(rec.callback)

	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	if len(rec.snapshot()) != 1 {
		t.Error("a panicking subscriber must not prevent delivery to the rest")
	}
}

func TestManager_GetCurrentSession_FallsBackToCache(t *testing.T) {
	provider := &fakeProvider{signInSession: demoSession(), fetchErr: errors.New("backend unreachable")}
	m := newTestManager(t, provider)
	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	resp := m.GetCurrentSession(context.Background())

	if !resp.Success {
		t.Fatalf("expected cached session fallback, got error: %s", resp.Error)
	}
	if resp.User == nil || resp.User.ID != "u-1" {
		t.Errorf("expected cached user u-1, got %+v", resp.User)
	}
	if resp.AccessToken != "token-1" {
		t.Errorf("expected cached token, got %q", resp.AccessToken)
	}
}

func TestManager_GetCurrentSession_ColdFailure(t *testing.T) {
	provider := &fakeProvider{fetchErr: errors.New("backend unreachable")}
	m := newTestManager(t, provider)

	resp := m.GetCurrentSession(context.Background())

	if resp.Success {
		t.Fatal("expected failure with no cache and unreachable provider")
	}
	if resp.Error != "no active session" {
		t.Errorf("expected 'no active session', got %q", resp.Error)
	}
}

func TestManager_GetCurrentSession_RefreshesWithoutNotify(t *testing.T) {
	fetched := demoSession()
	fetched.AccessToken = "token-2"
	provider := &fakeProvider{signInSession: demoSession(), fetchSession: fetched}
	m := newTestManager(t, provider)
	m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

	rec := &recorder{}
	unsubscribe := m.OnAuthStateChange(rec.callback)
	defer unsubscribe()
	replayed := len(rec.snapshot())

	resp := m.GetCurrentSession(context.Background())

	if !resp.Success || resp.AccessToken != "token-2" {
		t.Fatalf("expected refreshed session, got %+v", resp)
	}
	if m.GetAccessToken() != "token-2" {
		t.Error("expected local token updated from the provider's answer")
	}
	if extra := rec.snapshot()[replayed:]; len(extra) != 0 {
		t.Errorf("session re-query is not a transition, got %d notifications", len(extra))
	}
}

func TestManager_SignInWithGoogle_ReturnsRedirectOnly(t *testing.T) {
	provider := &fakeProvider{oauthURL: "https://example.test/auth/v1/authorize?provider=google"}
	m := newTestManager(t, provider)

	resp := m.SignInWithGoogle(context.Background())

	if !resp.Success {
		t.Fatalf("expected success, got error: %s", resp.Error)
	}
	if resp.RedirectURL == "" {
		t.Error("expected redirect URL")
	}
	if resp.User != nil || resp.AccessToken != "" {
		t.Error("OAuth start must not carry user or token")
	}
	if m.IsAuthenticated() {
		t.Error("OAuth start must not establish a session")
	}
}

func TestManager_UpdateProfile(t *testing.T) {
	name := "Renamed Farmer"

	t.Run("with active session merges and notifies once", func(t *testing.T) {
		provider := &fakeProvider{signInSession: demoSession()}
		m := newTestManager(t, provider)
		m.SignIn(context.Background(), SignInData{Email: "farmer@demo.com", Password: "demo123"})

		rec := &recorder{}
		unsubscribe := m.OnAuthStateChange(rec.callback)
		defer unsubscribe()
		replayed := len(rec.snapshot())

		result := m.UpdateProfile(context.Background(), ProfileUpdate{Name: &name})

		if !result.Success {
			t.Fatalf("expected success, got error: %s", result.Error)
		}
		if got := m.GetCurrentUser(); got == nil || got.Name != name {
			t.Errorf("expected merged name %q, got %+v", name, got)
		}

		calls := rec.snapshot()[replayed:]
		if len(calls) != 1 {
			t.Fatalf("expected exactly 1 notification, got %d", len(calls))
		}
		if calls[0] == nil || calls[0].Name != name {
			t.Errorf("expected notification with updated user, got %+v", calls[0])
		}
	})

	t.Run("without session is a silent no-op", func(t *testing.T) {
		m := newTestManager(t, &fakeProvider{})

		rec := &recorder{}
		m.OnAuthStateChange(rec.callback)

		result := m.UpdateProfile(context.Background(), ProfileUpdate{Name: &name})

		if !result.Success {
			t.Fatal("profile update without a session must succeed as a no-op")
		}
		if len(rec.snapshot()) != 0 {
			t.Error("no-op profile update must not notify")
		}
	})
}

func TestManager_ProviderEvents(t *testing.T) {
	events := make(chan ProviderEvent, 4)
	provider := &fakeProvider{events: events}
	m := newTestManager(t, provider)

	rec := &recorder{}
	m.OnAuthStateChange(rec.callback)

	user := demoSession().User

	// SIGNED_IN establishes the session and notifies
	events <- ProviderEvent{Type: EventSignedIn, User: &user, AccessToken: "token-1"}
	calls := rec.waitForCalls(t, 1)
	if calls[0] == nil || calls[0].ID != "u-1" {
		t.Fatalf("expected SIGNED_IN notification with user, got %+v", calls[0])
	}

	// TOKEN_REFRESHED swaps the token silently
	events <- ProviderEvent{Type: EventTokenRefreshed, AccessToken: "token-2"}
	waitFor(t, func() bool { return m.GetAccessToken() == "token-2" })
	if len(rec.snapshot()) != 1 {
		t.Error("token refresh must not notify subscribers")
	}

	// SIGNED_OUT clears and notifies with nil
	events <- ProviderEvent{Type: EventSignedOut}
	calls = rec.waitForCalls(t, 2)
	if calls[1] != nil {
		t.Errorf("expected nil notification on SIGNED_OUT, got %+v", calls[1])
	}
	if m.IsAuthenticated() {
		t.Error("SIGNED_OUT event must clear the session")
	}
}

func TestManager_TokenRefreshWithoutUserIsDropped(t *testing.T) {
	events := make(chan ProviderEvent, 1)
	provider := &fakeProvider{events: events}
	m := newTestManager(t, provider)

	events <- ProviderEvent{Type: EventTokenRefreshed, AccessToken: "orphan-token"}

	// Give the bridge a moment to process, then verify nothing was stored
	time.Sleep(50 * time.Millisecond)
	if m.GetAccessToken() != "" {
		t.Error("a token with no user must never be stored")
	}
	if m.IsAuthenticated() {
		t.Error("refresh event without a session must not authenticate")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
