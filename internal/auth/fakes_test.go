package auth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/email"
	sessionentity "github.com/ovaphlow/pitchfork/service-auth-go/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/password"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	saves  int
	err    error
	tokErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*entity.User)}
}

func (m *memUsers) ExistsByEmail(_ context.Context, e string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.users[strings.ToLower(e)]
	return ok, nil
}

func (m *memUsers) Save(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.users[strings.ToLower(u.Email)] = u
	return nil
}

func (m *memUsers) FindAuthProjection(_ context.Context, e string) (*entity.AuthUserDto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[strings.ToLower(e)]
	if !ok {
		return nil, nil
	}
	dto := &entity.AuthUserDto{ID: u.ID, Email: u.Email, AccessRange: u.AccessRange}
	if u.PasswordHash != nil {
		dto.PasswordHash = *u.PasswordHash
	}
	return dto, nil
}

func (m *memUsers) GenerateEmailVerificationToken(_ context.Context, id uuid.UUID) (string, error) {
	if m.tokErr != nil {
		return "", m.tokErr
	}
	return "tok-" + id.String(), nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

type sentMail struct{ to, token string }

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingMailer) SendVerification(to, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to, token})
}

type failingHasher struct{ err error }

func (f failingHasher) Hash(string) (string, error)         { return "", f.err }
func (f failingHasher) Verify(string, string) (bool, error) { return false, f.err }

// memSessions is an in-memory SessionStore.
type memSessions struct {
	mu       sync.Mutex
	sessions []*sessionentity.Session
	err      error
}

func (m *memSessions) Create(_ context.Context, s *sessionentity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *memSessions) all() []*sessionentity.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*sessionentity.Session(nil), m.sessions...)
}

func testHasher() *password.Hasher {
	return password.NewHasher(password.Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1})
}

func newTestStrategy(t *testing.T, users *memUsers, mailer *recordingMailer) *EmailPasswordStrategy {
	t.Helper()
	return NewEmailPasswordStrategy(users, testHasher(), email.NewValidator(), mailer, zaptest.NewLogger(t).Sugar())
}
