// Package token encodes and decodes the service's signed session tokens.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("token signing secret is empty")
	ErrExpired     = errors.New("token expired")
	ErrMalformed   = errors.New("token malformed")
)

// Codec signs and verifies tokens with a single shared HMAC secret.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Codec{secret: key, method: jwt.SigningMethodHS256}, nil
}

// Encode signs claims and returns the compact serialization.
func (c *Codec) Encode(claims jwt.Claims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil")
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies raw and returns its claims. The token must carry token_type "access".
// opts add checks such as jwt.WithIssuer or jwt.WithAudience.
func (c *Codec) ParseAccess(raw string, opts ...jwt.ParserOption) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(raw, claims, opts...); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrMalformed
	}
	return claims, nil
}

// ParseRefresh verifies raw and returns its claims. The token must carry token_type "refresh".
func (c *Codec) ParseRefresh(raw string, opts ...jwt.ParserOption) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(raw, claims, opts...); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, extra ...jwt.ParserOption) error {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}, extra...)
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// HashRefreshToken returns the hex SHA-256 digest stored on the session in place of the token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
