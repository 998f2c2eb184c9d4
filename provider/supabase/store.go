package supabase

import (
	"context"
	"sync"
	"time"

	"github.com/laxmi-narasimha26/b2b-commerce-nexus"
)

// Store implements the session store against a hosted project. Session
// notifications are fanned out in operation order, matching the contract
// the controller consumes.
type Store struct {
	client  *Client
	logger  nexus.Logger
	persist nexus.SessionPersister

	mu   sync.Mutex
	subs []chan nexus.AuthChange

	emitMu sync.Mutex
}

var _ nexus.SessionStore = (*Store)(nil)

type StoreOption func(*Store)

func WithLogger(logger nexus.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPersister(persister nexus.SessionPersister) StoreOption {
	return func(s *Store) {
		if persister != nil {
			s.persist = persister
		}
	}
}

// NewStore builds a hosted session store from the given configuration.
func NewStore(cfg Config, opts ...StoreOption) (*Store, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	store := &Store{
		client:  client,
		logger:  noopLogger{},
		persist: nexus.NewMemoryPersister(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store, nil
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	session, err := s.client.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.persist.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.emit(nexus.AuthChange{Event: nexus.AuthEventSignedIn, Session: session})

	return session, nil
}

func (s *Store) SignUp(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	session, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// no tokens means the project wants email confirmation first; the
	// identity is still usable for profile setup
	if session.AccessToken != "" {
		if err := s.persist.SaveSession(ctx, session); err != nil {
			return nil, err
		}
		s.emit(nexus.AuthChange{Event: nexus.AuthEventSignedIn, Session: session})
	}

	return session, nil
}

func (s *Store) SignOut(ctx context.Context) error {
	session, err := s.persist.LoadSession(ctx)
	if err != nil {
		return err
	}

	if session != nil && session.AccessToken != "" {
		if err := s.client.Logout(ctx, session.AccessToken); err != nil {
			return err
		}
	}

	if err := s.persist.ClearSession(ctx); err != nil {
		return err
	}

	s.emit(nexus.AuthChange{Event: nexus.AuthEventSignedOut})

	return nil
}

func (s *Store) RequestPasswordReset(ctx context.Context, email string) error {
	return s.client.Recover(ctx, email)
}

func (s *Store) CurrentSession(ctx context.Context) (*nexus.StoreSession, error) {
	session, err := s.persist.LoadSession(ctx)
	if err != nil {
		return nil, err
	}

	if session == nil || session.AccessToken == "" {
		return nil, nil
	}

	if session.ExpiresAt != nil && time.Now().After(*session.ExpiresAt) {
		return s.refresh(ctx, session)
	}

	return session, nil
}

func (s *Store) refresh(ctx context.Context, stale *nexus.StoreSession) (*nexus.StoreSession, error) {
	if stale.RefreshToken == "" {
		if err := s.persist.ClearSession(ctx); err != nil {
			s.logger.Warn("failed to clear expired session: %v", err)
		}
		return nil, nil
	}

	session, err := s.client.RefreshGrant(ctx, stale.RefreshToken)
	if err != nil {
		s.logger.Warn("session refresh failed: %v", err)
		if cerr := s.persist.ClearSession(ctx); cerr != nil {
			s.logger.Warn("failed to clear stale session: %v", cerr)
		}
		return nil, nil
	}

	if err := s.persist.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.emit(nexus.AuthChange{Event: nexus.AuthEventTokenRefreshed, Session: session})

	return session, nil
}

func (s *Store) Profile(ctx context.Context, userID string) (*nexus.Profile, error) {
	return s.client.FetchProfile(ctx, userID)
}

func (s *Store) InsertProfile(ctx context.Context, profile *nexus.Profile) (*nexus.Profile, error) {
	return s.client.UpsertProfile(ctx, profile)
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, patch nexus.ProfilePatch) (*nexus.Profile, error) {
	return s.client.PatchProfile(ctx, userID, patch)
}

func (s *Store) InsertOrganization(ctx context.Context, org *nexus.Organization) (*nexus.Organization, error) {
	return s.client.InsertOrganization(ctx, org)
}

// Subscribe opens a buffered subscription. The release function stops
// delivery before it returns.
func (s *Store) Subscribe() (<-chan nexus.AuthChange, func()) {
	ch := make(chan nexus.AuthChange, 8)

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

func (s *Store) emit(change nexus.AuthChange) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	subs := make([]chan nexus.AuthChange, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub <- change
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
