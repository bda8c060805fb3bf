package verify_test

import (
	"context"
	"database/sql"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	verify "github.com/goliatone/go-verify"
)

// MockLogger implements verify.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// quietLogger swallows everything; used where log output is noise.
type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

// fakeUsers is an in-memory user store. It embeds the Users interface
// so only the methods the flows exercise need real bodies.
type fakeUsers struct {
	verify.Users

	mu      sync.Mutex
	byEmail map[string]*verify.User

	upserts   int
	registers int
	failWith  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*verify.User{}}
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*verify.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}

	clone := *user
	return &clone, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return false, f.failWith
	}

	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUsers) Register(ctx context.Context, user *verify.User) (*verify.User, error) {
	return f.RegisterTx(ctx, nil, user)
}

func (f *fakeUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *verify.User) (*verify.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}

	stored := *user
	if stored.ID == uuid.Nil {
		stored.ID = deterministicID(stored.Email)
	}
	if stored.Image == "" {
		stored.Image = verify.DefaultImage
	}
	if len(stored.Permissions) == 0 {
		stored.Permissions = append([]string{}, verify.DefaultPermissions...)
	}

	f.registers++
	f.byEmail[stored.Email] = &stored

	clone := stored
	return &clone, nil
}

func (f *fakeUsers) UpsertByEmail(ctx context.Context, email string, fields verify.UserFields) (*verify.User, error) {
	f.mu.Lock()

	if f.failWith != nil {
		f.mu.Unlock()
		return nil, f.failWith
	}

	f.upserts++

	if user, ok := f.byEmail[email]; ok {
		user.Name = fields.Name
		if fields.Image != "" {
			user.Image = fields.Image
		}
		clone := *user
		f.mu.Unlock()
		return &clone, nil
	}
	f.mu.Unlock()

	return f.RegisterTx(context.Background(), nil, &verify.User{
		Email: email,
		Name:  fields.Name,
		Image: fields.Image,
	})
}

// stubRepo satisfies verify.RepositoryManager over a fakeUsers store.
// RunInTx has no real transaction to offer; handlers only thread the
// context through.
type stubRepo struct {
	verify.RepositoryManager
	users verify.Users
}

func (s stubRepo) Users() verify.Users { return s.users }

func (s stubRepo) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func deterministicID(email string) uuid.UUID {
	var id uuid.UUID
	copy(id[:], email)
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// recordingMailer captures the last verification URL instead of
// dispatching it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	urls []string
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, email, verificationURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, email)
	m.urls = append(m.urls, verificationURL)
	return nil
}

func (m *recordingMailer) lastURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.urls) == 0 {
		return ""
	}
	return m.urls[len(m.urls)-1]
}
