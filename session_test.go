package nexus_test

import (
	"testing"
	"time"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFromClaims(t *testing.T) {
	userID := uuid.NewString()
	orgID := uuid.NewString()
	issued := time.Now().Truncate(time.Second)

	claims := &nexus.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "nexus-test",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
		UID:      userID,
		UserMail: "owner@acme.test",
		UserRole: "business",
		OrgID:    orgID,
	}

	session, err := nexus.SessionFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, userID, session.GetUserID())
	assert.Equal(t, "owner@acme.test", session.GetEmail())
	assert.Equal(t, nexus.RoleBusiness, session.GetRole())
	assert.Equal(t, orgID, session.GetOrganizationID())
	assert.Equal(t, "nexus-test", session.GetIssuer())
	require.NotNil(t, session.GetIssuedAt())
	assert.Equal(t, issued.Unix(), session.GetIssuedAt().Unix())
	assert.Equal(t, nexus.BusinessDashboardPath, session.DashboardPath())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed.String())
}

func TestSessionFromClaimsDegradesUnknownRole(t *testing.T) {
	claims := &nexus.JWTClaims{UID: uuid.NewString(), UserRole: "service_role"}

	session, err := nexus.SessionFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, nexus.RoleUnknown, session.GetRole())
	assert.Equal(t, nexus.CustomerDashboardPath, session.DashboardPath())
}

func TestSessionFromClaimsRejectsNil(t *testing.T) {
	_, err := nexus.SessionFromClaims(nil)
	require.Error(t, err)
}
