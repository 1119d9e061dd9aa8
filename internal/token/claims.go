package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

func (t TokenType) String() string { return string(t) }

// ResourceAccess maps a client to its resources and the actions allowed on each.
type ResourceAccess map[string]map[string][]string

// AccessClaims is the payload of an access token. The registered claims carry
// sub, iss, aud, exp, iat, jti and nbf.
type AccessClaims struct {
	jwt.RegisteredClaims
	AccessScope    string         `json:"access_scope"`
	SID            uuid.UUID      `json:"sid"`
	AuthTime       int64          `json:"auth_time"`
	ResourceAccess ResourceAccess `json:"resource_access"`
	TokenType      TokenType      `json:"token_type"`
}

// RefreshClaims is the payload of a refresh token: sub, session_id, exp, iat, token_type.
type RefreshClaims struct {
	jwt.RegisteredClaims
	SessionID uuid.UUID `json:"session_id"`
	TokenType TokenType `json:"token_type"`
}
