package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenEntropyBytes = 32
	tokenIssuer       = "wishlist-account-service"
	minSigningKeyLen  = 32
)

var encoding = base64.RawURLEncoding

// ErrWeakSigningKey is returned for signing keys shorter than 32 bytes.
var ErrWeakSigningKey = errors.New("token signing key must be at least 32 bytes")

// RandomMinter mints opaque tokens: 256 random bits, base64url encoded.
type RandomMinter struct{}

func NewRandomMinter() *RandomMinter { return &RandomMinter{} }

func (RandomMinter) Mint() (string, error) {
	return randomString()
}

func (RandomMinter) WellFormed(token string) bool {
	if len(token) != encoding.EncodedLen(tokenEntropyBytes) {
		return false
	}
	_, err := encoding.DecodeString(token)
	return err == nil
}

// SignedMinter mints HS256 tokens whose only payload is a random jti and the
// issue time. Role and identity stay server side in the session store; the
// signature lets forged or mangled tokens be refused without a store lookup.
type SignedMinter struct {
	key []byte
	now func() time.Time
}

func NewSignedMinter(key string) (*SignedMinter, error) {
	if len(key) < minSigningKeyLen {
		return nil, ErrWeakSigningKey
	}
	return &SignedMinter{key: []byte(key), now: time.Now}, nil
}

func (m *SignedMinter) Mint() (string, error) {
	jti, err := randomString()
	if err != nil {
		return "", err
	}
	claims := jwt.RegisteredClaims{
		ID:       jti,
		Issuer:   tokenIssuer,
		IssuedAt: jwt.NewNumericDate(m.now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *SignedMinter) WellFormed(token string) bool {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	return err == nil && parsed.Valid && claims.ID != ""
}

func randomString() (string, error) {
	b := make([]byte, tokenEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return encoding.EncodeToString(b), nil
}
