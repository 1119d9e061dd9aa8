package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// Credentials is what a client submits. ProviderToken is only used by federated
// methods.
type Credentials struct {
	Email         string
	Password      string
	ProviderToken string
}

// Strategy creates and verifies accounts for one authentication method.
type Strategy interface {
	Signup(ctx context.Context, c Credentials) (*entity.User, error)
	Authenticate(ctx context.Context, c Credentials) (*entity.AuthUserDto, error)
}

// UserStore is the account persistence a strategy needs. *user.UserService
// satisfies it.
type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *entity.User) error
	// FindAuthProjection returns nil, nil when no user has that email.
	FindAuthProjection(ctx context.Context, email string) (*entity.AuthUserDto, error)
	GenerateEmailVerificationToken(ctx context.Context, id uuid.UUID) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
}

// VerificationSender queues a verification email. It must not block.
type VerificationSender interface {
	SendVerification(email, token string)
}
