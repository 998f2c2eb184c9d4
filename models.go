package nexus

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the session-bound user record the controller caches. It is derived
// from the store's profile row on each session event and is never the system
// of record.
type User struct {
	ID             uuid.UUID  `json:"id,omitempty"`
	Email          string     `json:"email,omitempty"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	Phone          string     `json:"phone_number,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Role           Role       `json:"role,omitempty"`
}

// DisplayName joins the name fields for presentation.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Profile is the persisted profile row keyed by the store identity.
type Profile struct {
	bun.BaseModel  `bun:"table:profiles,alias:prf"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	OrganizationID *uuid.UUID `bun:"organization_id,nullzero,type:uuid" json:"organization_id,omitempty"`
	Role           Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureRole normalizes missing role values to the explicit unknown variant.
func (p *Profile) EnsureRole() {
	if _, ok := ParseRole(string(p.Role)); !ok {
		p.Role = RoleUnknown
	}
}

// SessionUser maps the profile row to the session-bound user record.
func (p *Profile) SessionUser() *User {
	return &User{
		ID:             p.ID,
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Phone:          p.Phone,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
	}
}

// Apply merges the patch fields into the profile in place.
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
}

// PasswordResetStatus tracks a reset request through its lifecycle.
type PasswordResetStatus string

const (
	PasswordResetRequested PasswordResetStatus = "requested"
	PasswordResetCompleted PasswordResetStatus = "completed"
	PasswordResetExpired   PasswordResetStatus = "expired"
)

// PasswordReset is a pending reset request. The row ID doubles as the
// opaque token delivered to the user.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwr"`
	ID            uuid.UUID           `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID           `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Email         string              `bun:"email,notnull" json:"email,omitempty"`
	Status        PasswordResetStatus `bun:"status,notnull" json:"status,omitempty"`
	ExpiresAt     *time.Time          `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt     *time.Time          `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time          `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time          `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Expired reports whether the reset window has elapsed.
func (r *PasswordReset) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// OrganizationStatus is the organization account lifecycle status.
type OrganizationStatus string

const (
	OrganizationStatusPending   OrganizationStatus = "pending"
	OrganizationStatusActive    OrganizationStatus = "active"
	OrganizationStatusSuspended OrganizationStatus = "suspended"
)

// Organization is a company account row.
type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:org"`
	ID            uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string             `bun:"name,notnull" json:"name,omitempty"`
	Code          string             `bun:"code,notnull,unique" json:"code,omitempty"`
	TaxID         string             `bun:"tax_id" json:"tax_id,omitempty"`
	Website       string             `bun:"website" json:"website,omitempty"`
	Phone         string             `bun:"phone_number" json:"phone_number,omitempty"`
	Status        OrganizationStatus `bun:"status,notnull" json:"status,omitempty"`
	PaymentTerms  string             `bun:"payment_terms" json:"payment_terms,omitempty"`
	CreditLimit   int64              `bun:"credit_limit" json:"credit_limit,omitempty"`
	CreatedAt     *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time         `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus defaults new organizations to pending review.
func (o *Organization) EnsureStatus() {
	if o.Status == "" {
		o.Status = OrganizationStatusPending
	}
}
