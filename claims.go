package nexus

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the structured claims carried by an access token.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	OrganizationID() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string         `json:"uid,omitempty"`
	UserMail string         `json:"email,omitempty"`
	UserRole string         `json:"role,omitempty"`
	OrgID    string         `json:"org,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the store identity, falling back to the subject.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email claim.
func (c *JWTClaims) Email() string {
	return c.UserMail
}

// Role returns the account role claim.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// OrganizationID returns the organization reference claim, empty for
// individual customers.
func (c *JWTClaims) OrganizationID() string {
	return c.OrgID
}

// HasRole checks if the claims carry a specific role.
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time, zero when absent.
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// IssuedAt returns the issue time, zero when absent.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}
