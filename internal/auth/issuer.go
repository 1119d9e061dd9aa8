package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/netip"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	sessionentity "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// SessionStore persists sessions. Both session repositories satisfy it.
type SessionStore interface {
	Create(ctx context.Context, s *sessionentity.Session) error
}

type IssuerConfig struct {
	Issuer   string
	Audience string
	// minutes
	AccessTokenExpiration int
	// hours
	RefreshTokenExpiration int
	SessionExpiration      time.Duration
}

// SessionIssuer turns a verified identity into a stored session and a token pair.
type SessionIssuer struct {
	cfg      IssuerConfig
	codec    *token.Codec
	sessions SessionStore
	access   ResourceAccessSource
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewSessionIssuer(cfg IssuerConfig, codec *token.Codec, sessions SessionStore, access ResourceAccessSource, logger *zap.SugaredLogger) *SessionIssuer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SessionIssuer{
		cfg:      cfg,
		codec:    codec,
		sessions: sessions,
		access:   access,
		logger:   logger,
		now:      time.Now,
	}
}

var errExpiryOverflow = errors.New("expiry overflows")

// addChecked returns t + n*unit, refusing negative n and products that overflow.
func addChecked(t time.Time, n int64, unit time.Duration) (time.Time, error) {
	if n < 0 || n > math.MaxInt64/int64(unit) {
		return time.Time{}, fmt.Errorf("%w: %d x %s", errExpiryOverflow, n, unit)
	}
	d := time.Duration(n) * unit
	out := t.Add(d)
	if out.Before(t) {
		return time.Time{}, fmt.Errorf("%w: %s + %s", errExpiryOverflow, t, d)
	}
	return out, nil
}

// MakeSession stores a new session for u and returns its access and refresh tokens.
// No tokens are returned unless the session was stored.
func (i *SessionIssuer) MakeSession(ctx context.Context, u entity.AuthUserDto, ip netip.Addr, dev DeviceInfo) (string, string, error) {
	now := i.now().UTC().Truncate(time.Second)

	accessExp, err := addChecked(now, int64(i.cfg.AccessTokenExpiration), time.Minute)
	if err != nil {
		return "", "", i.internal("access token expiry", u, err)
	}
	refreshExp, err := addChecked(now, int64(i.cfg.RefreshTokenExpiration), time.Hour)
	if err != nil {
		return "", "", i.internal("refresh token expiry", u, err)
	}
	sessionExp, err := addChecked(now, int64(i.cfg.SessionExpiration), 1)
	if err != nil {
		return "", "", i.internal("session expiry", u, err)
	}

	sessionID := uuid.New()

	refresh, err := i.codec.Encode(&token.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		SessionID: sessionID,
		TokenType: token.TypeRefresh,
	})
	if err != nil {
		return "", "", i.internal("encode refresh token", u, err)
	}

	s := &sessionentity.Session{
		ID:               sessionID,
		UserID:           u.ID,
		RefreshTokenHash: token.HashRefreshToken(refresh),
		DeviceName:       optional(dev.Name),
		DeviceType:       optional(dev.Type),
		IPAddress:        ipString(ip),
		UserAgent:        optional(dev.UserAgent),
		ExpiresAt:        sessionExp,
		CreatedAt:        now,
		LastActiveAt:     now,
		IsRevoked:        false,
	}
	if err := i.sessions.Create(ctx, s); err != nil {
		return "", "", i.internal("persist session", u, err)
	}

	grants, err := i.access.ResourceAccess(ctx, u)
	if err != nil {
		return "", "", i.internal("load resource access", u, err)
	}

	access, err := i.codec.Encode(&token.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(accessExp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		AccessScope:    u.AccessRange.String(),
		SID:            sessionID,
		AuthTime:       now.Unix(),
		ResourceAccess: grants,
		TokenType:      token.TypeAccess,
	})
	if err != nil {
		return "", "", i.internal("encode access token", u, err)
	}

	i.logger.Debugw("session created",
		"session_id", sessionID,
		"user_id", u.ID,
		"device_type", dev.Type,
		"os", dev.OS,
		"browser", dev.Browser,
	)
	return access, refresh, nil
}

// IntrospectAccess verifies an access token issued by MakeSession. Tokens minted for
// another issuer or audience are rejected even when the signature is valid.
func (i *SessionIssuer) IntrospectAccess(raw string) (*token.AccessClaims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	var opts []jwt.ParserOption
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}
	if i.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(i.cfg.Audience))
	}
	claims, err := i.codec.ParseAccess(raw, opts...)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrTokenExpired
		}
		i.logger.Debugw("access token rejected", "err", err)
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *SessionIssuer) internal(step string, u entity.AuthUserDto, err error) error {
	i.logger.Errorw("session issuance failed", "step", step, "user_id", u.ID, "err", err)
	return fmt.Errorf("%w: %s: %w", ErrInternal, step, err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ipString(ip netip.Addr) string {
	if !ip.IsValid() {
		return "unknown"
	}
	return ip.String()
}
