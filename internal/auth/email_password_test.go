package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/email"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/repo"
)

func TestSignupCreatesRegisteredLocalUser(t *testing.T) {
	users, mailer := newMemUsers(), &recordingMailer{}
	s := newTestStrategy(t, users, mailer)
	ctx := context.Background()

	u, err := s.Signup(ctx, Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, entity.StateRegistered, u.UserState)
	assert.Equal(t, entity.ProviderLocal, u.AuthProvider)
	assert.False(t, u.EmailVerified)
	require.NotNil(t, u.PasswordHash)
	assert.True(t, strings.HasPrefix(*u.PasswordHash, "$argon2id$"))
	assert.NotContains(t, *u.PasswordHash, "password123")

	exists, err := users.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "a@x.com", mailer.sent[0].to)
	assert.Equal(t, "tok-"+u.ID.String(), mailer.sent[0].token)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users, mailer := newMemUsers(), &recordingMailer{}
	s := newTestStrategy(t, users, mailer)
	ctx := context.Background()

	_, err := s.Signup(ctx, Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	_, err = s.Signup(ctx, Credentials{Email: "a@x.com", Password: "other-password"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Equal(t, 1, users.saves)
	assert.Equal(t, 1, users.count())
	assert.Len(t, mailer.sent, 1)
}

// Two signups for one email can both pass the existence check; the loser's insert
// hits the unique index and must still report UserAlreadyExists.
func TestSignupLosesInsertRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`)).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	logger := zaptest.NewLogger(t).Sugar()
	users := user.NewUserService(repo.NewUserRepo(sqlx.NewDb(db, "postgres")), logger)
	mailer := &recordingMailer{}
	s := NewEmailPasswordStrategy(users, testHasher(), email.NewValidator(), mailer, logger)

	_, err = s.Signup(context.Background(), Credentials{Email: "A@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.NotErrorIs(t, err, ErrInternal)
	status, _ := HTTPStatus(err)
	assert.Equal(t, 400, status)
	assert.Empty(t, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupInvalidEmail(t *testing.T) {
	users := newMemUsers()
	s := newTestStrategy(t, users, &recordingMailer{})

	for _, e := range []string{"", "not-an-email", "a@"} {
		_, err := s.Signup(context.Background(), Credentials{Email: e, Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidEmail, e)
	}
	assert.Zero(t, users.saves)
}

func TestSignupHashFailurePersistsNothing(t *testing.T) {
	users, mailer := newMemUsers(), &recordingMailer{}
	s := NewEmailPasswordStrategy(users, failingHasher{errors.New("out of memory")},
		email.NewValidator(), mailer, zaptest.NewLogger(t).Sugar())

	_, err := s.Signup(context.Background(), Credentials{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Zero(t, users.saves)
	assert.Empty(t, mailer.sent)
}

func TestSignupStoreFailure(t *testing.T) {
	users := newMemUsers()
	users.err = errors.New("connection refused")
	s := newTestStrategy(t, users, &recordingMailer{})

	_, err := s.Signup(context.Background(), Credentials{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrUserAlreadyExists)
}

func TestSignupSurvivesVerificationTokenFailure(t *testing.T) {
	users, mailer := newMemUsers(), &recordingMailer{}
	users.tokErr = errors.New("update failed")
	s := newTestStrategy(t, users, mailer)

	u, err := s.Signup(context.Background(), Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.Nil(t, u.EmailVerificationToken)
	assert.Empty(t, mailer.sent)
	assert.Equal(t, 1, users.count())
}

func TestAuthenticate(t *testing.T) {
	users := newMemUsers()
	s := newTestStrategy(t, users, &recordingMailer{})
	ctx := context.Background()

	created, err := s.Signup(ctx, Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	dto, err := s.Authenticate(ctx, Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.ID)
	assert.Equal(t, entity.AccessRangeUser, dto.AccessRange)
}

func TestAuthenticateDoesNotRevealUnknownEmail(t *testing.T) {
	users := newMemUsers()
	s := newTestStrategy(t, users, &recordingMailer{})
	ctx := context.Background()

	_, err := s.Signup(ctx, Credentials{Email: "a@x.com", Password: "password123"})
	require.NoError(t, err)

	_, wrongPassword := s.Authenticate(ctx, Credentials{Email: "a@x.com", Password: "wrong"})
	_, unknownEmail := s.Authenticate(ctx, Credentials{Email: "b@x.com", Password: "password123"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.NotErrorIs(t, unknownEmail, ErrUserNotFound)
}

func TestAuthenticateUnreadableOrMissingHash(t *testing.T) {
	users := newMemUsers()
	s := newTestStrategy(t, users, &recordingMailer{})

	corrupt := "not-a-phc-string"
	u := entity.NewUser("a@x.com")
	u.PasswordHash = &corrupt
	require.NoError(t, users.Save(context.Background(), u))
	require.NoError(t, users.Save(context.Background(), entity.NewUser("b@x.com")))

	_, err := s.Authenticate(context.Background(), Credentials{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(context.Background(), Credentials{Email: "b@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStoreFailure(t *testing.T) {
	users := newMemUsers()
	users.err = errors.New("timeout")
	s := newTestStrategy(t, users, &recordingMailer{})

	_, err := s.Authenticate(context.Background(), Credentials{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInternal)
}
