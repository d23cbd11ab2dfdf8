package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/voltgrid/internal/auth"
)

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.voltgrid.io",
		Audience:   "voltgrid-api",
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := testJWTService()

	user := &auth.User{
		ID:        "8e0b2f3c-1111-4222-8333-444455556666",
		Email:     "test@example.com",
		Admin:     true,
		CreatedAt: time.Now(),
	}

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.ID, claims.Subject)
	assert.True(t, claims.Admin)
	assert.Equal(t, "https://api.voltgrid.io", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := testJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestJWTService_WrongSigningKey(t *testing.T) {
	svc1 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "key-one",
		Issuer:     "https://api.voltgrid.io",
		Audience:   "voltgrid-api",
	})

	user := &auth.User{ID: "user-1"}
	token, _, err := svc1.GenerateAccessToken(user)
	require.NoError(t, err)

	svc2 := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "key-two",
		Issuer:     "https://api.voltgrid.io",
		Audience:   "voltgrid-api",
	})

	_, err = svc2.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
