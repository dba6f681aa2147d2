package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	now := time.Now()
	token, err := IssueToken("secret", "a@b.com", 30*time.Minute, now)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt, time.Second)
	assert.False(t, claims.Expired(now))
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := IssueToken("secret", "a@b.com", time.Minute, time.Now())
	require.NoError(t, err)
	expired, err := IssueToken("secret", "a@b.com", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		token   string
		wantErr error
	}{
		{"empty", "secret", "", ErrMissingToken},
		{"null literal", "secret", "null", ErrMissingToken},
		{"garbage", "secret", "not.a.jwt", ErrInvalidToken},
		{"wrong secret", "other", valid, ErrInvalidToken},
		{"expired", "secret", expired, ErrInvalidToken},
		{"no subject", "secret", noSubject, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestInspect_DoesNotVerify(t *testing.T) {
	token, err := IssueToken("server-only-secret", "a@b.com", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)
	assert.True(t, claims.Expired(time.Now()))

	_, err = Inspect("abc123")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
