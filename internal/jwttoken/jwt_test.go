package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbourses/pkg/domain"
	dErrors "campusbourses/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "campusbourses")
	p := domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleStudent}

	token, err := svc.GenerateAccessToken(p, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, p.UserID.String(), claims.UserID)
	assert.Equal(t, "student", claims.Role)
	assert.NotEmpty(t, claims.ID, "token must carry a jti for revocation")

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("test-signing-key", "campusbourses")
	p := domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleAdmin}

	token, err := svc.GenerateAccessToken(p, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_WrongKey(t *testing.T) {
	issuer := NewService("key-one", "campusbourses")
	verifier := NewService("key-two", "campusbourses")
	p := domain.Principal{UserID: domain.NewUserID(), Role: domain.RoleStudent}

	token, err := issuer.GenerateAccessToken(p, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
