package auth

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Manager is the authentication and session lifecycle manager. It owns the
// single in-memory session (at most one user/token pair at a time), fans
// session transitions out to subscribers, and folds the provider's
// asynchronous event stream into its own state.
//
// Construct with NewManager and pass the instance to whatever needs it;
// there is no package-level singleton.
type Manager struct {
	provider Provider
	logger   zerolog.Logger

	// mu guards user and token. The pair is replaced or cleared atomically;
	// partial state is never observable.
	mu    sync.Mutex
	user  *AuthUser
	token string

	// listenerMu guards the subscriber registry only. Callbacks are always
	// invoked outside both locks so a subscriber may call back into the
	// manager without deadlocking.
	listenerMu sync.Mutex
	listeners  map[int]func(*AuthUser)
	nextID     int

	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a manager bound to the given provider. In embedded mode
// the provider's event stream is consumed by a bridge goroutine for the
// lifetime of the manager; call Close to tear it down.
func NewManager(provider Provider, logger zerolog.Logger) *Manager {
	m := &Manager{
		provider:  provider,
		logger:    logger.With().Str("component", "auth").Logger(),
		listeners: make(map[int]func(*AuthUser)),
		done:      make(chan struct{}),
	}

	if events := provider.Events(); events != nil {
		go m.runBridge(events)
	}

	return m
}

// Mode reports which identity backend the manager was constructed with
func (m *Manager) Mode() Mode {
	return m.provider.Mode()
}

// Close tears down the provider event bridge and the provider itself.
// The manager must not be used afterwards.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return m.provider.Close()
}

// SignUp registers a new account. In embedded mode a backend that requires
// email confirmation yields Success=true with no User and an advisory
// message in Error; callers must check for a missing User, not just Success.
func (m *Manager) SignUp(ctx context.Context, data SignUpData) AuthResponse {
	session, advisory, err := m.provider.SignUp(ctx, data)
	if err != nil {
		m.logger.Warn().Err(err).Str("email", data.Email).Msg("Sign up failed")
		return AuthResponse{Success: false, Error: err.Error()}
	}

	if session == nil {
		// Confirmation pending: no session was issued, so nothing to store
		// and nothing to notify.
		m.logger.Info().Str("email", data.Email).Msg("Sign up accepted, confirmation pending")
		return AuthResponse{Success: true, Error: advisory}
	}

	user := m.setSession(session.User, session.AccessToken)
	m.notify(user)

	m.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed up")
	return AuthResponse{Success: true, User: user, AccessToken: session.AccessToken}
}

// SignIn authenticates with email and password
func (m *Manager) SignIn(ctx context.Context, data SignInData) AuthResponse {
	session, err := m.provider.SignIn(ctx, data)
	if err != nil {
		m.logger.Warn().Err(err).Str("email", data.Email).Msg("Sign in failed")
		return AuthResponse{Success: false, Error: err.Error()}
	}

	user := m.setSession(session.User, session.AccessToken)
	m.notify(user)

	m.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed in")
	return AuthResponse{Success: true, User: user, AccessToken: session.AccessToken}
}

// SignInWithGoogle starts the OAuth redirect flow. On success the response
// carries the authorize URL and no user or token; the session materializes
// later through the provider event stream once the browser completes the
// redirect.
func (m *Manager) SignInWithGoogle(ctx context.Context) AuthResponse {
	url, err := m.provider.OAuthURL(ctx, "google")
	if err != nil {
		return AuthResponse{Success: false, Error: err.Error()}
	}
	return AuthResponse{Success: true, RedirectURL: url}
}

// SignOut ends the current session. Local state is cleared and subscribers
// are notified exactly once even when the remote sign-out call fails;
// leaving local state logged in after an explicit sign-out would be strictly
// worse than ignoring a remote error.
func (m *Manager) SignOut(ctx context.Context) Result {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if err := m.provider.SignOut(ctx, token); err != nil {
		m.logger.Warn().Err(err).Msg("Remote sign out failed, clearing local session anyway")
	}

	m.clearSession()
	m.notify(nil)

	m.logger.Info().Msg("User signed out")
	return Result{Success: true}
}

// GetCurrentSession returns the active session, re-querying the provider in
// embedded mode. When the provider is unreachable the last known session is
// reused if one is cached; a cold query with no cache and a failed remote
// call reports no active session.
func (m *Manager) GetCurrentSession(ctx context.Context) AuthResponse {
	session, err := m.provider.FetchSession(ctx)
	if err == nil && session != nil {
		// Refresh local state from the provider's answer. Identity did not
		// transition, so subscribers are not notified.
		user := m.setSession(session.User, session.AccessToken)
		return AuthResponse{Success: true, User: user, AccessToken: session.AccessToken}
	}

	m.mu.Lock()
	user, token := copyUser(m.user), m.token
	m.mu.Unlock()

	if user != nil && token != "" {
		return AuthResponse{Success: true, User: user, AccessToken: token}
	}

	return AuthResponse{Success: false, Error: ErrNoSession.Error()}
}

// ResetPassword requests a password-reset email for the given address
func (m *Manager) ResetPassword(ctx context.Context, email string) Result {
	if err := m.provider.ResetPassword(ctx, email); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

// UpdatePassword changes the password of the authenticated user
func (m *Manager) UpdatePassword(ctx context.Context, newPassword string) Result {
	if err := m.provider.UpdatePassword(ctx, newPassword); err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

// UpdateProfile merges the given fields into the current user's profile.
// With no active session this is a successful no-op and nothing is notified.
func (m *Manager) UpdateProfile(ctx context.Context, updates ProfileUpdate) Result {
	if err := m.provider.UpdateProfile(ctx, updates); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	m.mu.Lock()
	var updated *AuthUser
	if m.user != nil {
		if updates.Name != nil {
			m.user.Name = *updates.Name
		}
		if updates.Phone != nil {
			m.user.Phone = *updates.Phone
		}
		updated = copyUser(m.user)
	}
	m.mu.Unlock()

	if updated != nil {
		m.notify(updated)
		m.logger.Info().Str("user_id", updated.ID).Msg("Profile updated")
	}

	return Result{Success: true}
}

// IsAuthenticated reports whether a session is currently active
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != ""
}

// GetCurrentUser returns a copy of the current user, or nil
func (m *Manager) GetCurrentUser() *AuthUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyUser(m.user)
}

// GetAccessToken returns the current bearer token, or empty
func (m *Manager) GetAccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// OnAuthStateChange registers a callback invoked with the user on every
// session transition (nil on sign-out). If a session already exists the
// callback is invoked synchronously once before this returns, so subscribers
// never have to poll for "already logged in". The returned function removes
// the subscription; calling it more than once is a no-op.
func (m *Manager) OnAuthStateChange(callback func(*AuthUser)) func() {
	m.listenerMu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = callback
	m.listenerMu.Unlock()

	m.mu.Lock()
	current := copyUser(m.user)
	hasSession := m.user != nil && m.token != ""
	m.mu.Unlock()

	if hasSession {
		m.invoke(id, callback, current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenerMu.Lock()
			delete(m.listeners, id)
			m.listenerMu.Unlock()
		})
	}
}

// runBridge folds the provider's event stream into local session state.
// Unknown event types are ignored.
func (m *Manager) runBridge(events <-chan ProviderEvent) {
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleProviderEvent(ev)
		}
	}
}

func (m *Manager) handleProviderEvent(ev ProviderEvent) {
	switch ev.Type {
	case EventSignedIn:
		if ev.User == nil || ev.AccessToken == "" {
			return
		}
		user := m.setSession(*ev.User, ev.AccessToken)
		m.notify(user)
		m.logger.Info().Str("user_id", user.ID).Msg("Session established by provider event")

	case EventSignedOut:
		m.clearSession()
		m.notify(nil)
		m.logger.Info().Msg("Session ended by provider event")

	case EventTokenRefreshed:
		// Identity is unchanged, so only the stored token is swapped and
		// subscribers are not notified. A refresh with no local user is
		// dropped to keep the no-partial-session invariant.
		m.mu.Lock()
		if m.user != nil && ev.AccessToken != "" {
			m.token = ev.AccessToken
		}
		m.mu.Unlock()

	default:
		m.logger.Debug().Str("event", string(ev.Type)).Msg("Ignoring unknown provider event")
	}
}

// setSession atomically replaces the session and returns a caller-owned copy
// of the stored user.
func (m *Manager) setSession(user AuthUser, token string) *AuthUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := user
	m.user = &stored
	m.token = token
	return copyUser(m.user)
}

func (m *Manager) clearSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.token = ""
}

// notify delivers one transition to every currently-registered subscriber in
// registration order. The registry is snapshotted first: callbacks run
// outside all locks, and a callback registered during delivery is not
// included in the same pass.
func (m *Manager) notify(user *AuthUser) {
	m.listenerMu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	callbacks := make([]func(*AuthUser), len(ids))
	for i, id := range ids {
		callbacks[i] = m.listeners[id]
	}
	m.listenerMu.Unlock()

	for i, cb := range callbacks {
		m.invoke(ids[i], cb, copyUser(user))
	}
}

// invoke runs a single callback, isolating panics so one misbehaving
// subscriber cannot prevent delivery to the rest.
func (m *Manager) invoke(id int, cb func(*AuthUser), user *AuthUser) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Int("listener_id", id).Interface("panic", r).Msg("Auth listener panicked")
		}
	}()
	cb(user)
}

func copyUser(u *AuthUser) *AuthUser {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
