package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

func newSigner(t *testing.T, now *time.Time) *JWTSigner {
	t.Helper()
	s, err := NewJWTSigner(JWTConfig{
		Secret:    []byte("0123456789abcdef0123"),
		Issuer:    "chat-service",
		Audience:  "chat-clients",
		TTL:       time.Hour,
		ClockSkew: 30 * time.Second,
	}, func() time.Time { return *now })
	require.NoError(t, err)
	return s
}

func TestJWT_SignVerifyRoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSigner(t, &now)

	tok, err := s.Sign(42)
	require.NoError(t, err)

	id, err := s.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, domain.UserID(42), id)
}

func TestJWT_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSigner(t, &now)

	tok, err := s.Sign(42)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWT_WrongIssuerOrSecret(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSigner(t, &now)

	other, err := NewJWTSigner(JWTConfig{
		Secret: []byte("another-secret-value!"),
		Issuer: "chat-service",
		TTL:    time.Hour,
	}, func() time.Time { return now })
	require.NoError(t, err)

	tok, err := other.Sign(1)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTSigner_ShortSecret(t *testing.T) {
	_, err := NewJWTSigner(JWTConfig{Secret: []byte("short"), Issuer: "x"}, nil)
	require.Error(t, err)
}

func TestPassword(t *testing.T) {
	cfg := BcryptConfig{Cost: bcrypt.MinCost}

	hash, err := HashPassword("correct horse", cfg)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "correct horse"))
	require.ErrorIs(t, ComparePassword(hash, "wrong horse"), ErrPasswordMismatch)

	_, err = HashPassword("short", cfg)
	require.Error(t, err)
}

func TestInviteCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		c, err := InviteCode()
		require.NoError(t, err)
		require.Len(t, c, 6)
		require.Empty(t, strings.Trim(c, "0123456789"))
	}
}
