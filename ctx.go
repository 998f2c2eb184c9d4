package nexus

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithUserContext sets the session-bound user in the given context.
func WithUserContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// UserFromContext finds the session-bound user in the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context.
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the AuthClaims from the context.
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// RoleFromContext resolves the effective role for the request: the user's
// role when present, the claims role otherwise, RoleUnknown when neither.
func RoleFromContext(ctx context.Context) Role {
	if user, ok := UserFromContext(ctx); ok && user != nil {
		return user.Role
	}
	if claims, ok := ClaimsFromContext(ctx); ok {
		role, _ := ParseRole(claims.Role())
		return role
	}
	return RoleUnknown
}
