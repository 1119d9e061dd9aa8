package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-min-32-bytes-long!")

func accessClaims(now time.Time, ttl time.Duration) *AccessClaims {
	return &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "localhost",
			Audience:  jwt.ClaimStrings{"app.gandalf"},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		AccessScope: "user",
		SID:         uuid.New(),
		AuthTime:    now.Unix(),
		ResourceAccess: ResourceAccess{
			"gandalf": {"channel/test": {"read", "write"}},
		},
		TokenType: TypeAccess,
	}
}

func refreshClaims(now time.Time, ttl time.Duration) *RefreshClaims {
	return &RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID: uuid.New(),
		TokenType: TypeRefresh,
	}
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	_, err := NewCodec(nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestEncodeProducesCompactHS256(t *testing.T) {
	c, err := NewCodec(testSecret)
	require.NoError(t, err)

	raw, err := c.Encode(accessClaims(time.Now(), time.Minute))
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)

	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", tok.Header["alg"])
}

func TestAccessRoundTrip(t *testing.T) {
	c, _ := NewCodec(testSecret)
	now := time.Now().Truncate(time.Second)
	in := accessClaims(now, 15*time.Minute)

	raw, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.ParseAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, in.Subject, out.Subject)
	assert.Equal(t, in.SID, out.SID)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, "user", out.AccessScope)
	assert.Equal(t, in.ResourceAccess, out.ResourceAccess)
	assert.Equal(t, 15*time.Minute, out.ExpiresAt.Sub(out.IssuedAt.Time))
}

func TestAccessWireFields(t *testing.T) {
	c, _ := NewCodec(testSecret)
	raw, err := c.Encode(accessClaims(time.Now(), time.Minute))
	require.NoError(t, err)

	m := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(raw, m)
	require.NoError(t, err)
	for _, k := range []string{"sub", "access_scope", "sid", "iss", "aud", "exp", "iat", "jti", "nbf", "auth_time", "resource_access", "token_type"} {
		assert.Contains(t, m, k)
	}
	assert.Equal(t, "access", m["token_type"])
}

func TestRefreshWireFields(t *testing.T) {
	c, _ := NewCodec(testSecret)
	raw, err := c.Encode(refreshClaims(time.Now(), time.Hour))
	require.NoError(t, err)

	m := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(raw, m)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sub", "session_id", "exp", "iat", "token_type"}, keys(m))
	assert.Equal(t, "refresh", m["token_type"])

	out, err := c.ParseRefresh(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeRefresh, out.TokenType)
}

func keys(m jwt.MapClaims) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	c, _ := NewCodec(testSecret)

	refresh, err := c.Encode(refreshClaims(time.Now(), time.Hour))
	require.NoError(t, err)
	_, err = c.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrMalformed)

	access, err := c.Encode(accessClaims(time.Now(), time.Hour))
	require.NoError(t, err)
	_, err = c.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseAccessWithIssuerAndAudience(t *testing.T) {
	c, _ := NewCodec(testSecret)
	raw, err := c.Encode(accessClaims(time.Now(), time.Hour))
	require.NoError(t, err)

	_, err = c.ParseAccess(raw, jwt.WithIssuer("localhost"), jwt.WithAudience("app.gandalf"))
	require.NoError(t, err)

	_, err = c.ParseAccess(raw, jwt.WithAudience("app.other"))
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = c.ParseAccess(raw, jwt.WithIssuer("auth.example.com"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseExpired(t *testing.T) {
	c, _ := NewCodec(testSecret)
	raw, err := c.Encode(accessClaims(time.Now().Add(-2*time.Hour), time.Hour))
	require.NoError(t, err)

	_, err = c.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseWrongSecret(t *testing.T) {
	c, _ := NewCodec(testSecret)
	other, _ := NewCodec([]byte("another-secret"))
	raw, err := other.Encode(accessClaims(time.Now(), time.Hour))
	require.NoError(t, err)

	_, err = c.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseGarbage(t *testing.T) {
	c, _ := NewCodec(testSecret)
	_, err := c.ParseAccess("not.a.token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	c, _ := NewCodec(testSecret)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, accessClaims(time.Now(), time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.ParseAccess(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestHashRefreshToken(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", HashRefreshToken("test"))
	assert.NotEqual(t, HashRefreshToken("a"), HashRefreshToken("b"))
}
