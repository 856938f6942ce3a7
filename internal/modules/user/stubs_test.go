package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/platformkit/identity-service/internal/config"
	"github.com/platformkit/identity-service/internal/filestore"
	"github.com/platformkit/identity-service/internal/notification"
	"github.com/platformkit/identity-service/internal/notification/templates"
	"github.com/platformkit/identity-service/internal/otp"
	"github.com/platformkit/identity-service/internal/token"
)

// --- Repository stub ---

type stubRepository struct {
	mu     sync.Mutex
	users  map[string]*User
	states map[string]*OAuthState

	failWith error
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		users:  make(map[string]*User),
		states: make(map[string]*OAuthState),
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *stubRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepository) FindByFederatedID(_ context.Context, federatedID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.FederatedID != nil && *u.FederatedID == federatedID {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (r *stubRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *stubRepository) UpdatePassword(_ context.Context, userID, newPasswordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = newPasswordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *stubRepository) MarkEmailVerified(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	if u.EmailVerifiedAt == nil {
		u.EmailVerifiedAt = &at
		u.UpdatedAt = time.Now()
	}
	return nil
}

func (r *stubRepository) SetBan(_ context.Context, userID string, banned bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsBanned = banned
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (r *stubRepository) Remove(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *stubRepository) InsertOAuthState(_ context.Context, state *OAuthState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *state
	r.states[state.State] = &clone
	return nil
}

func (r *stubRepository) GetOAuthStateByState(_ context.Context, state string) (*OAuthState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[state]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *st
	return &clone, nil
}

func (r *stubRepository) DeleteOAuthState(_ context.Context, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

func (r *stubRepository) DeleteExpiredOAuthStates(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for k, st := range r.states {
		if now.After(st.ExpiresAt) {
			delete(r.states, k)
		}
	}
	return nil
}

// --- One-time code store stub ---

type memCodeStore struct {
	mu    sync.Mutex
	codes []*otp.Code
	next  int
}

func newMemCodeStore() *memCodeStore { return &memCodeStore{} }

func (m *memCodeStore) Insert(_ context.Context, c *otp.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		m.next++
		c.ID = fmt.Sprintf("code-%d", m.next)
	}
	clone := *c
	m.codes = append(m.codes, &clone)
	return nil
}

func (m *memCodeStore) FindActiveByUser(_ context.Context, userID string, purpose otp.Purpose) (*otp.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.UserID == userID && c.Purpose == purpose && c.ConsumedAt == nil {
			clone := *c
			return &clone, nil
		}
	}
	return nil, otp.ErrNotFound
}

func (m *memCodeStore) FindActiveByHash(_ context.Context, purpose otp.Purpose, codeHash string) (*otp.Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Purpose == purpose && c.CodeHash == codeHash && c.ConsumedAt == nil {
			clone := *c
			return &clone, nil
		}
	}
	return nil, otp.ErrNotFound
}

func (m *memCodeStore) SupersedeOutstanding(_ context.Context, userID string, purpose otp.Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, c := range m.codes {
		if c.UserID == userID && c.Purpose == purpose && c.ConsumedAt == nil {
			at := now
			c.ConsumedAt = &at
		}
	}
	return nil
}

func (m *memCodeStore) Consume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.ID == id {
			if c.ConsumedAt != nil {
				return otp.ErrAlreadyConsumed
			}
			now := time.Now()
			c.ConsumedAt = &now
			return nil
		}
	}
	return otp.ErrNotFound
}

// --- Reset ticket store stub ---

type memTicketStore struct {
	mu      sync.Mutex
	tickets map[string]string
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{tickets: make(map[string]string)}
}

func (m *memTicketStore) Create(_ context.Context, ticket, userID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket] = userID
	return nil
}

func (m *memTicketStore) Consume(_ context.Context, ticket string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.tickets[ticket]
	if !ok {
		return "", errTicketNotFound
	}
	delete(m.tickets, ticket)
	return userID, nil
}

// --- Notifier stub ---

// recordingNotifier captures rendered notifications on a buffered channel so
// tests can wait for asynchronous dispatch.
type recordingNotifier struct {
	sent     chan notification.Notification
	failWith error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan notification.Notification, 8)}
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Notification) error {
	if n.failWith != nil {
		return n.failWith
	}
	n.sent <- msg
	return nil
}

func (n *recordingNotifier) wait(timeout time.Duration) (notification.Notification, bool) {
	select {
	case msg := <-n.sent:
		return msg, true
	case <-time.After(timeout):
		return notification.Notification{}, false
	}
}

// --- File store stub ---

type memFileStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	next  int
}

func newMemFileStore() *memFileStore {
	return &memFileStore{blobs: make(map[string][]byte)}
}

func (m *memFileStore) Store(_ context.Context, ownerKey string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	ref := fmt.Sprintf("mem://%s/%d", ownerKey, m.next)
	m.blobs[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *memFileStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[ref]
	if !ok {
		return nil, filestore.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memFileStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[ref]; !ok {
		return filestore.ErrNotFound
	}
	delete(m.blobs, ref)
	return nil
}

// --- OAuth provider stub ---

type stubProvider struct {
	profile  *FederatedProfile
	fetchErr error
}

func (p *stubProvider) AuthCodeURL(state, _ string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *stubProvider) FetchProfile(context.Context, string, string) (*FederatedProfile, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.profile, nil
}

// --- Harness ---

type testEnv struct {
	svc     *service
	repo    *stubRepository
	codes   *memCodeStore
	tickets *memTicketStore
	sent    *recordingNotifier
	files   *memFileStore
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newStubRepository()
	codes := newMemCodeStore()
	tickets := newMemTicketStore()
	sent := newRecordingNotifier()
	files := newMemFileStore()

	cfg := &config.Config{}
	cfg.OTP.TTLMinutes = 10
	cfg.OTP.CodeLength = 6
	cfg.SMTP.From = "support@example.com"

	svc := &service{
		repo:      repo,
		codes:     otp.NewIssuer(codes, nil, otp.Config{TTL: 10 * time.Minute, CodeLength: 6}, logger),
		tokens:    token.NewService("test-secret", time.Hour),
		tickets:   tickets,
		notifier:  sent,
		templates: templates.NewEngine(),
		files:     files,
		providers: make(map[OAuthProvider]oauthProvider),
		logger:    logger,
		config:    cfg,
	}
	return &testEnv{svc: svc, repo: repo, codes: codes, tickets: tickets, sent: sent, files: files}
}

// seedUser creates a verified user with the given password directly in the
// repository stub.
func (e *testEnv) seedUser(id, email, password string) *User {
	hash := ""
	if password != "" {
		h, err := hashPassword(password)
		if err != nil {
			panic(err)
		}
		hash = h
	}
	now := time.Now()
	u := &User{
		ID:              id,
		Email:           email,
		Username:        "user-" + id,
		PasswordHash:    hash,
		Role:            RoleUser,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.repo.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

var errBoom = errors.New("boom")
