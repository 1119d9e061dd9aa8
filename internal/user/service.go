package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// Repository is the persistence surface the service needs. *repo.UserRepo satisfies it.
type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *entity.User) error
	FindAuthProjection(ctx context.Context, email string) (*entity.AuthUserDto, error)
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, sentAt time.Time) error
}

// UserService mediates between authentication strategies and the users table.
type UserService struct {
	repo   Repository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewUserService(r Repository, logger *zap.SugaredLogger) *UserService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, logger: logger, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address so lookups and inserts agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ExistsByEmail reports whether email is already registered.
func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, NormalizeEmail(email))
}

// Save persists a new user. It returns entity.ErrDuplicateEmail when another
// request stored the same email first.
func (s *UserService) Save(ctx context.Context, u *entity.User) error {
	u.Email = NormalizeEmail(u.Email)
	return s.repo.Create(ctx, u)
}

// FindAuthProjection returns nil, nil when no user has that email.
func (s *UserService) FindAuthProjection(ctx context.Context, email string) (*entity.AuthUserDto, error) {
	dto, err := s.repo.FindAuthProjection(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dto, nil
}

// GenerateEmailVerificationToken creates a KSUID token for the user and stores it with
// the time it was issued. KSUIDs embed their creation second, which together with
// email_verification_sent_at bounds the token's validity.
func (s *UserService) GenerateEmailVerificationToken(ctx context.Context, id uuid.UUID) (string, error) {
	token := utilities.NewKSUID()
	if err := s.repo.SetVerificationToken(ctx, id, token, s.now().UTC()); err != nil {
		return "", err
	}
	s.logger.Debugw("email verification token issued", "user_id", id)
	return token, nil
}
