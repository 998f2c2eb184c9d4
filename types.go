package nexus

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthEventType enumerates the session-change notifications a store emits.
type AuthEventType string

const (
	AuthEventSignedIn        AuthEventType = "signed_in"
	AuthEventSignedOut       AuthEventType = "signed_out"
	AuthEventSessionRestored AuthEventType = "session_restored"
	AuthEventTokenRefreshed  AuthEventType = "token_refreshed"
)

// StoreSession is the session payload the store hands back after sign-in,
// sign-up, or a session restore.
type StoreSession struct {
	UserID       string     `json:"user_id"`
	Email        string     `json:"email,omitempty"`
	AccessToken  string     `json:"access_token,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// AuthChange is a single session-change notification. Session is nil for
// signed-out events.
type AuthChange struct {
	Event   AuthEventType
	Session *StoreSession
}

// Credentials covers the auth operations the managed backend owns.
type Credentials interface {
	SignIn(ctx context.Context, email, password string) (*StoreSession, error)
	SignUp(ctx context.Context, email, password string) (*StoreSession, error)
	SignOut(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	// CurrentSession restores a persisted session. A (nil, nil) return means
	// no session exists, which is not an error.
	CurrentSession(ctx context.Context) (*StoreSession, error)
}

// ProfileRows covers the persisted rows the backend keeps on our behalf.
type ProfileRows interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
	InsertProfile(ctx context.Context, profile *Profile) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*Profile, error)
	InsertOrganization(ctx context.Context, org *Organization) (*Organization, error)
}

// SessionStore is the external collaborator boundary: the managed
// authentication and persistence client. Implementations must emit
// session-change notifications in the order the operations completed.
type SessionStore interface {
	Credentials
	ProfileRows

	// Subscribe opens a standing subscription to session-change
	// notifications. The returned release function must stop delivery; no
	// event may be delivered after release returns.
	Subscribe() (<-chan AuthChange, func())
}

// ProfilePatch carries the changed fields of a profile update. Nil fields are
// left untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone_number,omitempty"`
}

// IsEmpty reports whether the patch carries no changes.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil
}

// Config holds options for token issuance and the HTTP surface.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
	GetSignInRoute() string
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// NewDefaultLogger returns the stdout printf logger.
func NewDefaultLogger() Logger {
	return defLogger{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] NEXUS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] NEXUS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] NEXUS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] NEXUS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
