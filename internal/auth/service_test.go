package auth

import (
	"testing"
	"time"

	"collab-relay/internal/config"
	"collab-relay/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: time.Hour,
		},
	}
	return NewService(nil, cfg)
}

func signClaims(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestVerifyCredentialRoundTrip(t *testing.T) {
	s := testService(t)
	user := &models.User{ID: 42, Username: "ada", Email: "ada@example.com"}

	token, err := s.generateToken(user)
	require.NoError(t, err)

	identity, err := s.VerifyCredential(token)
	require.NoError(t, err)
	assert.Equal(t, 42, identity.UserID)
	assert.Equal(t, "ada", identity.Username)
	assert.Equal(t, "ada@example.com", identity.Email)
}

func TestVerifyCredentialMissing(t *testing.T) {
	s := testService(t)

	_, err := s.VerifyCredential("")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyCredentialMalformed(t *testing.T) {
	s := testService(t)

	_, err := s.VerifyCredential("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyCredentialExpired(t *testing.T) {
	s := testService(t)
	token := signClaims(t, s.cfg.JWT.Secret, jwt.MapClaims{
		"user_id": 42,
		"email":   "ada@example.com",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	_, err := s.VerifyCredential(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyCredentialWrongSecret(t *testing.T) {
	s := testService(t)
	token := signClaims(t, []byte("some-other-secret"), jwt.MapClaims{
		"user_id": 42,
		"email":   "ada@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := s.VerifyCredential(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyCredentialMissingClaims(t *testing.T) {
	s := testService(t)

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no user_id", jwt.MapClaims{"email": "ada@example.com", "exp": time.Now().Add(time.Hour).Unix()}},
		{"no email", jwt.MapClaims{"user_id": 42, "exp": time.Now().Add(time.Hour).Unix()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signClaims(t, s.cfg.JWT.Secret, tt.claims)
			_, err := s.VerifyCredential(token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestValidateRegistrationRequest(t *testing.T) {
	s := testService(t)

	tests := []struct {
		name    string
		req     models.RegisterRequest
		wantErr bool
	}{
		{"valid", models.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "longenough"}, false},
		{"missing fields", models.RegisterRequest{Email: "ada@example.com"}, true},
		{"bad email", models.RegisterRequest{Username: "ada", Email: "not-an-email", Password: "longenough"}, true},
		{"short password", models.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "short"}, true},
		{"short username", models.RegisterRequest{Username: "ab", Email: "ada@example.com", Password: "longenough"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.validateRegistrationRequest(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
