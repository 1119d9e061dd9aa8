package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/email"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// EmailPasswordStrategy authenticates local accounts with an email address and an
// Argon2id password hash.
type EmailPasswordStrategy struct {
	users     UserStore
	hasher    PasswordHasher
	validator email.Validator
	mailer    VerificationSender
	logger    *zap.SugaredLogger
}

func NewEmailPasswordStrategy(users UserStore, hasher PasswordHasher, validator email.Validator, mailer VerificationSender, logger *zap.SugaredLogger) *EmailPasswordStrategy {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EmailPasswordStrategy{
		users:     users,
		hasher:    hasher,
		validator: validator,
		mailer:    mailer,
		logger:    logger,
	}
}

// Signup registers a new local user. The verification email is queued after the
// user is stored; a failure to issue the verification token does not undo the signup.
func (s *EmailPasswordStrategy) Signup(ctx context.Context, c Credentials) (*entity.User, error) {
	if err := s.validator.Validate(c.Email); err != nil {
		s.logger.Debugw("signup rejected", "reason", "invalid email", "err", err)
		return nil, ErrInvalidEmail
	}

	exists, err := s.users.ExistsByEmail(ctx, c.Email)
	if err != nil {
		s.logger.Errorw("signup existence check failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	u := entity.NewUser(c.Email)
	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		s.logger.Errorw("password hashing failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	u.PasswordHash = &hash
	u.PasswordUpdatedAt = &u.CreatedAt

	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, entity.ErrDuplicateEmail) {
			s.logger.Debugw("signup rejected", "reason", "email registered concurrently")
			return nil, ErrUserAlreadyExists
		}
		s.logger.Errorw("saving user failed", "user_id", u.ID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}

	token, err := s.users.GenerateEmailVerificationToken(ctx, u.ID)
	if err != nil {
		s.logger.Warnw("verification token not issued", "user_id", u.ID, "err", err)
		return u, nil
	}
	u.EmailVerificationToken = &token
	s.mailer.SendVerification(u.Email, token)

	s.logger.Debugw("user signed up", "user_id", u.ID)
	return u, nil
}

// Authenticate never tells the caller whether the email exists. An unknown email,
// a missing or unreadable hash and a wrong password all return ErrInvalidCredentials.
func (s *EmailPasswordStrategy) Authenticate(ctx context.Context, c Credentials) (*entity.AuthUserDto, error) {
	dto, err := s.users.FindAuthProjection(ctx, c.Email)
	if err != nil {
		s.logger.Errorw("loading user for login failed", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if dto == nil {
		s.logger.Debugw("login rejected", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if dto.PasswordHash == "" {
		s.logger.Debugw("login rejected", "reason", "no password set", "user_id", dto.ID)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(c.Password, dto.PasswordHash)
	if err != nil {
		s.logger.Warnw("stored password hash unreadable", "user_id", dto.ID, "err", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Debugw("login rejected", "reason", "wrong password", "user_id", dto.ID)
		return nil, ErrInvalidCredentials
	}
	return dto, nil
}
