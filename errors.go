package nexus

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	textCodeRegistrationIncomplete = "REGISTRATION_INCOMPLETE"
	textCodeSignOutFailed          = "SIGN_OUT_FAILED"
	textCodeProfileUpdateFailed    = "PROFILE_UPDATE_FAILED"
	textCodeNotAuthenticated       = "NOT_AUTHENTICATED"
	textCodeSessionCheckFailed     = "SESSION_CHECK_FAILED"
	textCodeTokenExpired           = "TOKEN_EXPIRED"
	textCodeTokenMalformed         = "TOKEN_MALFORMED"
)

// ErrInvalidCredentials is returned when the session store rejects a sign-in.
var ErrInvalidCredentials = goerrors.New("Invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRegistrationIncomplete is returned when the auth account was created but
// the profile or organization linkage failed. The auth account is left in
// place; the error metadata carries the orphaned identity.
var ErrRegistrationIncomplete = goerrors.New("account created but profile setup failed, contact support", goerrors.CategoryOperation).
	WithTextCode(textCodeRegistrationIncomplete).
	WithCode(goerrors.CodeConflict)

// ErrSignOutFailed is returned when the store rejected a sign-out. The local
// cache is left untouched since the session may still be valid.
var ErrSignOutFailed = goerrors.New("sign out failed", goerrors.CategoryOperation).
	WithTextCode(textCodeSignOutFailed)

// ErrProfileUpdateFailed is returned when a profile write was rejected.
var ErrProfileUpdateFailed = goerrors.New("profile update failed", goerrors.CategoryOperation).
	WithTextCode(textCodeProfileUpdateFailed)

// ErrNotAuthenticated is returned for operations that require a session.
var ErrNotAuthenticated = goerrors.New("no authenticated user", goerrors.CategoryAuth).
	WithTextCode(textCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionCheckFailed is the startup session verification failure. It is
// logged, never propagated: the controller fails open to Anonymous.
var ErrSessionCheckFailed = goerrors.New("session check failed", goerrors.CategoryOperation).
	WithTextCode(textCodeSessionCheckFailed)

// ErrTokenExpired is returned when parsing an expired access token.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens we cannot parse at all.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToFindSession is returned when a request carries no session token.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession is returned when claims cannot be decoded.
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure.
var ErrMismatchedHashAndPassword = goerrors.New("credentials do not match", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value cannot be an empty string", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsInvalidCredentials reports whether err is a rejected sign-in.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, textCodeInvalidCredentials)
}

// IsRegistrationIncomplete reports whether err is a partial registration
// failure that left an orphaned auth account behind.
func IsRegistrationIncomplete(err error) bool {
	return hasTextCode(err, textCodeRegistrationIncomplete)
}

// IsNotAuthenticated reports whether err means no user is cached.
func IsNotAuthenticated(err error) bool {
	return hasTextCode(err, textCodeNotAuthenticated)
}

// IsSignOutFailed reports whether err is a failed sign-out, meaning the local
// session may still be valid.
func IsSignOutFailed(err error) bool {
	return hasTextCode(err, textCodeSignOutFailed)
}

// IsProfileUpdateFailed reports whether err is a rejected profile write.
func IsProfileUpdateFailed(err error) bool {
	return hasTextCode(err, textCodeProfileUpdateFailed)
}

// IsTokenExpiredError will check for expired tokens.
func IsTokenExpiredError(err error) bool {
	return hasTextCode(err, textCodeTokenExpired)
}

// IsMalformedError will check for undecodable tokens.
func IsMalformedError(err error) bool {
	return hasTextCode(err, textCodeTokenMalformed)
}
