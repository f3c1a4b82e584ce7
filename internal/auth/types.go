package auth

import (
	"time"
)

// Mode indicates which identity backend the manager was constructed with.
// It is fixed at construction and never changes for the lifetime of the
// process; switching modes requires a restart.
type Mode string

const (
	// ModeEmbedded delegates identity operations to a configured Supabase
	// (GoTrue) backend.
	ModeEmbedded Mode = "embedded"
	// ModeStandalone operates entirely on in-memory synthetic accounts.
	ModeStandalone Mode = "standalone"
)

// AuthUser is the identity record exposed to the rest of the application.
// Callers always receive copies; the manager owns the canonical value.
type AuthUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SignUpData is the payload for registering a new account
type SignUpData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

// SignInData is the payload for password sign-in
type SignInData struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate is a partial update of the mutable profile fields.
// Nil pointers leave the corresponding field untouched.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// AuthResponse is the uniform result of session-producing operations.
// Operations never return Go errors across the manager boundary; failures
// are reported through Success/Error. A Success response with no User means
// the provider accepted the request but issued no session yet (email
// confirmation pending) and Error carries an advisory message.
type AuthResponse struct {
	Success     bool      `json:"success"`
	User        *AuthUser `json:"user,omitempty"`
	AccessToken string    `json:"accessToken,omitempty"`
	RedirectURL string    `json:"redirectUrl,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Result is the outcome of operations that never produce a session
// (sign-out, password reset/update, profile update).
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
