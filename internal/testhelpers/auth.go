package testhelpers

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/middleware"
	"github.com/stretchr/testify/require"
)

// Signer mints access tokens with a throwaway RSA key.
type Signer struct {
	T          testing.TB
	PrivateKey *rsa.PrivateKey
}

func NewSigner(t testing.TB) *Signer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "Failed to generate test RSA key")
	return &Signer{T: t, PrivateKey: key}
}

func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.PrivateKey.PublicKey
}

// CreateJWT signs a token for userID carrying the given role.
func (s *Signer) CreateJWT(userID uuid.UUID, role string) string {
	return s.sign(jwt.MapClaims{
		"iss":  middleware.TokenIssuer,
		"sub":  userID.String(),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(15 * time.Minute).Unix(),
	})
}

// CreateExpiredJWT is otherwise valid but expired a minute ago.
func (s *Signer) CreateExpiredJWT(userID uuid.UUID, role string) string {
	return s.sign(jwt.MapClaims{
		"iss":  middleware.TokenIssuer,
		"sub":  userID.String(),
		"role": role,
		"iat":  time.Now().Add(-16 * time.Minute).Unix(),
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})
}

func (s *Signer) sign(claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.PrivateKey)
	require.NoError(s.T, err, "Failed to sign test JWT")
	return signed
}
