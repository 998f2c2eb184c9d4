package nexus

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session holds attributes that are part of an auth session as seen by the
// HTTP layer.
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetEmail() string
	GetRole() Role
	GetOrganizationID() string
	GetIssuer() string
	GetIssuedAt() *time.Time
}

var _ Session = &SessionObject{}

// SessionObject is the concrete session derived from validated token claims.
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Email          string     `json:"email,omitempty"`
	Role           Role       `json:"role,omitempty"`
	OrganizationID string     `json:"organization_id,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetRole() Role {
	return s.Role
}

func (s *SessionObject) GetOrganizationID() string {
	return s.OrganizationID
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

// DashboardPath returns the canonical dashboard path for the session role.
func (s *SessionObject) DashboardPath() string {
	return s.Role.DashboardPath()
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s role=%s org=%s iss=%s iat=%s",
		s.UserID,
		s.Role,
		s.OrganizationID,
		s.Issuer,
		issuedAt,
	)
}

// SessionFromClaims creates a SessionObject from validated claims. The role
// is parsed leniently: unknown values degrade to RoleUnknown, which routes
// like a customer.
func SessionFromClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	role, _ := ParseRole(claims.Role())

	session := &SessionObject{
		UserID:         claims.UserID(),
		Email:          claims.Email(),
		Role:           role,
		OrganizationID: claims.OrganizationID(),
	}

	if issuedAt := claims.IssuedAt(); !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}
	if expires := claims.Expires(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		session.Issuer = jwtClaims.RegisteredClaims.Issuer
	}

	return session, nil
}
