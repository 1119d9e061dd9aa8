package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated device or browser instance. A new session is
// created on every successful login.
type Session struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	RefreshTokenHash string     `json:"refresh_token_hash" db:"refresh_token_hash"`
	DeviceIdentifier *string    `json:"device_identifier,omitempty" db:"device_identifier"`
	DeviceName       *string    `json:"device_name,omitempty" db:"device_name"`
	DeviceType       *string    `json:"device_type,omitempty" db:"device_type"`
	IPAddress        string     `json:"ip_address" db:"ip_address"`
	UserAgent        *string    `json:"user_agent,omitempty" db:"user_agent"`
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	LastActiveAt     time.Time  `json:"last_active_at" db:"last_active_at"`
	IsRevoked        bool       `json:"is_revoked" db:"is_revoked"`
	RevokedReason    *string    `json:"revoked_reason,omitempty" db:"revoked_reason"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
