package nexus

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// SessionPersister keeps the issued session across process restarts.
// Implementations back this with whatever the host application has at
// hand, a cookie jar, a keychain, a file.
type SessionPersister interface {
	LoadSession(ctx context.Context) (*StoreSession, error)
	SaveSession(ctx context.Context, session *StoreSession) error
	ClearSession(ctx context.Context) error
}

// NewMemoryPersister returns a process-local SessionPersister.
func NewMemoryPersister() SessionPersister {
	return &memoryPersister{}
}

type memoryPersister struct {
	mu      sync.Mutex
	session *StoreSession
}

func (m *memoryPersister) LoadSession(ctx context.Context) (*StoreSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *memoryPersister) SaveSession(ctx context.Context, session *StoreSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	return nil
}

func (m *memoryPersister) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

// LocalStore is the self-hosted SessionStore. It verifies credentials
// against the profiles table, mints JWT access tokens, and fans session
// notifications out to subscribers in operation order.
type LocalStore struct {
	repo     RepositoryManager
	tokens   TokenService
	logger   Logger
	persist  SessionPersister
	resetTTL time.Duration

	mu   sync.Mutex
	subs []chan AuthChange

	// emitMu serializes fan-out so subscribers observe events in the
	// order the operations completed.
	emitMu sync.Mutex
}

var _ SessionStore = (*LocalStore)(nil)

type LocalStoreOption func(*LocalStore)

func StoreWithLogger(logger Logger) LocalStoreOption {
	return func(s *LocalStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func StoreWithPersister(persister SessionPersister) LocalStoreOption {
	return func(s *LocalStore) {
		if persister != nil {
			s.persist = persister
		}
	}
}

func StoreWithResetTTL(ttl time.Duration) LocalStoreOption {
	return func(s *LocalStore) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// NewLocalStore builds a SessionStore backed by the local database.
func NewLocalStore(repo RepositoryManager, tokens TokenService, opts ...LocalStoreOption) (*LocalStore, error) {
	if repo == nil {
		return nil, goerrors.New("local store requires a repository manager", goerrors.CategoryBadInput)
	}

	if tokens == nil {
		return nil, goerrors.New("local store requires a token service", goerrors.CategoryBadInput)
	}

	store := &LocalStore{
		repo:     repo,
		tokens:   tokens,
		logger:   defLogger{},
		persist:  &memoryPersister{},
		resetTTL: 24 * time.Hour,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store, nil
}

func (s *LocalStore) SignIn(ctx context.Context, email, password string) (*StoreSession, error) {
	profile, err := s.repo.Profiles().GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, profile.PasswordHash); err != nil {
		return nil, err
	}

	if err := s.repo.Profiles().TrackSuccessfulLogin(ctx, profile); err != nil {
		s.logger.Warn("failed to track login for %s: %v", profile.ID, err)
	}

	session, err := s.mintSession(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.emit(AuthChange{Event: AuthEventSignedIn, Session: session})

	return session, nil
}

func (s *LocalStore) SignUp(ctx context.Context, email, password string) (*StoreSession, error) {
	email = normalizeEmail(email)

	if _, err := s.repo.Profiles().GetByIdentifier(ctx, email); err == nil {
		return nil, goerrors.New("email already registered", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithCode(goerrors.CodeConflict)
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	record := &Profile{
		Email:        email,
		PasswordHash: hash,
		Role:         RoleUnknown,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		record.ID = id
	}

	created, err := s.repo.Profiles().Create(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	session, err := s.mintSession(ctx, created)
	if err != nil {
		return nil, err
	}

	s.emit(AuthChange{Event: AuthEventSignedIn, Session: session})

	return session, nil
}

func (s *LocalStore) SignOut(ctx context.Context) error {
	if err := s.persist.ClearSession(ctx); err != nil {
		return err
	}

	s.emit(AuthChange{Event: AuthEventSignedOut})

	return nil
}

func (s *LocalStore) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := s.repo.Profiles().GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// do not disclose whether the account exists
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	expiresAt := time.Now().Add(s.resetTTL)

	_, err = s.repo.PasswordResets().Create(ctx, &PasswordReset{
		ID:        uuid.New(),
		UserID:    profile.ID,
		Email:     profile.Email,
		Status:    PasswordResetRequested,
		ExpiresAt: &expiresAt,
	})

	return err
}

func (s *LocalStore) CurrentSession(ctx context.Context) (*StoreSession, error) {
	session, err := s.persist.LoadSession(ctx)
	if err != nil {
		return nil, err
	}

	if session == nil || session.AccessToken == "" {
		return nil, nil
	}

	if _, err := s.tokens.Validate(session.AccessToken); err != nil {
		// a stale token is the same as no session
		if cerr := s.persist.ClearSession(ctx); cerr != nil {
			s.logger.Warn("failed to clear stale session: %v", cerr)
		}
		return nil, nil
	}

	return session, nil
}

func (s *LocalStore) Profile(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.Profiles().GetByIdentifier(ctx, userID)
}

func (s *LocalStore) InsertProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	return s.repo.Profiles().Upsert(ctx, profile)
}

func (s *LocalStore) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*Profile, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid user id")
	}
	return s.repo.Profiles().ApplyPatch(ctx, id, patch)
}

func (s *LocalStore) InsertOrganization(ctx context.Context, org *Organization) (*Organization, error) {
	return s.repo.Organizations().Create(ctx, org)
}

// Subscribe opens a buffered subscription. The release function stops
// delivery before it returns.
func (s *LocalStore) Subscribe() (<-chan AuthChange, func()) {
	ch := make(chan AuthChange, 8)

	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.emitMu.Lock()
			s.mu.Lock()
			for i, sub := range s.subs {
				if sub == ch {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
			s.mu.Unlock()
			s.emitMu.Unlock()
			close(ch)
		})
	}

	return ch, release
}

func (s *LocalStore) mintSession(ctx context.Context, profile *Profile) (*StoreSession, error) {
	token, err := s.tokens.Generate(profile)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mint access token")
	}

	session := &StoreSession{
		UserID:      profile.ID.String(),
		Email:       profile.Email,
		AccessToken: token,
	}

	if claims, err := s.tokens.Validate(token); err == nil {
		if exp := claims.Expires(); !exp.IsZero() {
			session.ExpiresAt = &exp
		}
	}

	if err := s.persist.SaveSession(ctx, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	return session, nil
}

func (s *LocalStore) emit(change AuthChange) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	subs := make([]chan AuthChange, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub <- change
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
