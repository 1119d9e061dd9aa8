package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateEmail is returned when a user is stored with an email that is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// AuthProvider identifies where a user's credentials live.
type AuthProvider string

const (
	ProviderLocal     AuthProvider = "local"
	ProviderGoogle    AuthProvider = "google"
	ProviderMicrosoft AuthProvider = "microsoft"
	ProviderApple     AuthProvider = "apple"
	ProviderFacebook  AuthProvider = "facebook"
	ProviderLti       AuthProvider = "lti"
	ProviderSaml      AuthProvider = "saml"
	ProviderLdap      AuthProvider = "ldap"
	ProviderCustom    AuthProvider = "custom"
)

var providers = []AuthProvider{
	ProviderLocal, ProviderGoogle, ProviderMicrosoft, ProviderApple, ProviderFacebook,
	ProviderLti, ProviderSaml, ProviderLdap, ProviderCustom,
}

func (p AuthProvider) String() string { return string(p) }

// ParseAuthProvider is case-insensitive.
func ParseAuthProvider(s string) (AuthProvider, error) {
	v := AuthProvider(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range providers {
		if p == v {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid auth provider: %s", s)
}

// UserState is the account lifecycle state.
type UserState string

const (
	StateRegistered UserState = "registered"
	StateVerified   UserState = "verified"
	StateActive     UserState = "active"
	StateIncomplete UserState = "incomplete"
	StateDisabled   UserState = "disabled"
	StateLocked     UserState = "locked"
	StateDeleted    UserState = "deleted"
)

var states = []UserState{
	StateRegistered, StateVerified, StateActive, StateIncomplete,
	StateDisabled, StateLocked, StateDeleted,
}

func (s UserState) String() string { return string(s) }

// ParseUserState is case-insensitive.
func ParseUserState(s string) (UserState, error) {
	v := UserState(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range states {
		if st == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid user state: %s", s)
}

// AccessRange is the coarse permission tier embedded in access tokens.
type AccessRange string

const (
	AccessRangeUser   AccessRange = "user"
	AccessRangeGlobal AccessRange = "global"
)

func (a AccessRange) String() string { return string(a) }

// ParseAccessRange is case-insensitive.
func ParseAccessRange(s string) (AccessRange, error) {
	switch AccessRange(strings.ToLower(strings.TrimSpace(s))) {
	case AccessRangeUser:
		return AccessRangeUser, nil
	case AccessRangeGlobal:
		return AccessRangeGlobal, nil
	}
	return "", fmt.Errorf("invalid access range: %s", s)
}

// User represents an account row in the `users` table.
type User struct {
	ID         uuid.UUID
	ExternalID *string
	Username   *string
	Email      string

	PasswordHash          *string
	PasswordUpdatedAt     *time.Time
	PasswordResetRequired bool

	FailedLoginAttempts int
	LastFailedAttempt   *time.Time
	AccountLockedUntil  *time.Time

	EmailVerified           bool
	EmailVerificationToken  *string
	EmailVerificationSentAt *time.Time

	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
	LastLoginIP   *string
	LastUserAgent *string

	RequiresMFA         bool
	AuthProvider        AuthProvider
	UserState           UserState
	AccessRange         AccessRange
	DeletionScheduledAt *time.Time
}

// NewUser returns a freshly registered local user for email.
func NewUser(email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
		AuthProvider: ProviderLocal,
		UserState:    StateRegistered,
		AccessRange:  AccessRangeUser,
	}
}

// AuthUserDto is the authentication-only projection of a user. It is never persisted.
type AuthUserDto struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	AccessRange  AccessRange
}
