package nexus

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Phase is the controller lifecycle phase.
type Phase string

const (
	// PhaseInitializing is the entry phase, held until the first session
	// check resolves. It is never re-entered.
	PhaseInitializing Phase = "initializing"
	// PhaseAnonymous means no user is cached.
	PhaseAnonymous Phase = "anonymous"
	// PhaseAuthenticated means exactly one user is cached.
	PhaseAuthenticated Phase = "authenticated"
)

var phaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseInitializing: {
		PhaseAnonymous:     {},
		PhaseAuthenticated: {},
	},
	PhaseAnonymous: {
		PhaseAuthenticated: {},
	},
	PhaseAuthenticated: {
		PhaseAnonymous: {},
	},
}

// Snapshot is a point-in-time read of the controller state, safe to pass to
// guard evaluations.
type Snapshot struct {
	Phase Phase
	User  *User
}

// Role returns the snapshot user's role, RoleUnknown when anonymous.
func (s Snapshot) Role() Role {
	if s.User == nil {
		return RoleUnknown
	}
	return s.User.Role
}

// Registration is the sign-up payload. A non-empty OrganizationName makes the
// account a business account and creates the organization record.
type Registration struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name,omitempty"`
}

// Controller owns the single in-process truth for "who is signed in and as
// what role". All mutation happens in its own methods or its subscription
// consumer; everything else only reads.
type Controller struct {
	store        SessionStore
	logger       Logger
	activitySink ActivitySink
	now          func() time.Time

	mu      sync.RWMutex
	phase   Phase
	user    *User
	session *StoreSession

	startOnce sync.Once
	closeOnce sync.Once
	stopped   bool
	release   func()
	done      chan struct{}
}

// ControllerOption customizes controller construction.
type ControllerOption func(*Controller)

// WithLogger overrides the default logger.
func WithLogger(logger Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActivitySink configures an ActivitySink for auth events.
func WithActivitySink(sink ActivitySink) ControllerOption {
	return func(c *Controller) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewController returns a controller bound to the given session store. The
// controller starts in PhaseInitializing; call Start to run the initial
// session check and open the change subscription.
func NewController(store SessionStore, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:        store,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		now:          time.Now,
		phase:        PhaseInitializing,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Start performs the one-time session check and opens the standing
// subscription to session-change notifications. A failed check fails open to
// Anonymous: it is logged and never blocks boot.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.RLock()
		stopped := c.stopped
		c.mu.RUnlock()
		if stopped {
			return
		}

		sess, err := c.store.CurrentSession(ctx)
		switch {
		case err != nil:
			c.logger.Warn("session check failed, treating as no session: %v", err)
			c.setAnonymous()
		case sess == nil:
			c.setAnonymous()
		default:
			user := c.resolveUser(ctx, sess)
			c.setAuthenticated(user, sess)
			c.emitActivity(ctx, ActivityEventSessionRestored, sess.UserID, nil)
		}

		ch, release := c.store.Subscribe()
		c.release = release
		go c.consume(ch)
	})
}

// Close releases the subscription and waits for the consumer to drain. No
// state mutation happens after Close returns.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		if c.release != nil {
			c.release()
			<-c.done
			return
		}
		close(c.done)
	})
}

// consume is the single consumer of session-change notifications. Events are
// applied in delivery order; each effect is one synchronous state assignment.
func (c *Controller) consume(ch <-chan AuthChange) {
	defer close(c.done)
	for change := range ch {
		c.apply(context.Background(), change)
	}
}

func (c *Controller) apply(ctx context.Context, change AuthChange) {
	switch change.Event {
	case AuthEventSignedOut:
		c.setAnonymous()
	case AuthEventSignedIn, AuthEventSessionRestored, AuthEventTokenRefreshed:
		if change.Session == nil {
			c.setAnonymous()
			return
		}
		user := c.resolveUser(ctx, change.Session)
		c.setAuthenticated(user, change.Session)
	default:
		c.logger.Debug("ignoring unknown session event: %s", change.Event)
	}
}

// resolveUser maps a store session to the cached user record. A missing or
// unreadable profile row degrades to a minimal record with an unknown role,
// which routes like a customer.
func (c *Controller) resolveUser(ctx context.Context, sess *StoreSession) *User {
	profile, err := c.store.Profile(ctx, sess.UserID)
	if err != nil || profile == nil {
		if err != nil {
			c.logger.Warn("profile lookup for %s failed, using session identity only: %v", sess.UserID, err)
		}
		id, parseErr := uuid.Parse(sess.UserID)
		if parseErr != nil {
			c.logger.Error("session carries unparsable user id: %s", sess.UserID)
		}
		return &User{ID: id, Email: sess.Email, Role: RoleUnknown}
	}

	profile.EnsureRole()
	return profile.SessionUser()
}

func (c *Controller) setAnonymous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canTransition(c.phase, PhaseAnonymous) {
		return
	}
	c.phase = PhaseAnonymous
	c.user = nil
	c.session = nil
}

func (c *Controller) setAuthenticated(user *User, sess *StoreSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseAuthenticated && !c.canTransition(c.phase, PhaseAuthenticated) {
		return
	}
	c.phase = PhaseAuthenticated
	c.user = user
	c.session = sess
}

func (c *Controller) canTransition(from, to Phase) bool {
	if from == to {
		// Re-applying the current phase is idempotent, except Initializing,
		// which is a terminal entry state.
		return from != PhaseInitializing
	}
	allowed, ok := phaseTransitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// CurrentUser returns a copy of the cached user record, if any. Synchronous,
// no side effects.
func (c *Controller) CurrentUser() (*User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil, false
	}
	u := *c.user
	return &u, true
}

// IsAuthenticated reports whether a user is cached.
func (c *Controller) IsAuthenticated() bool {
	_, ok := c.CurrentUser()
	return ok
}

// Session returns the raw store session, when authenticated.
func (c *Controller) Session() (*StoreSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, false
	}
	s := *c.session
	return &s, true
}

// Snapshot returns a point-in-time view for guard evaluation.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Phase: c.phase}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	return snap
}

// DashboardURL maps the active role to its canonical dashboard path. Total:
// anonymous and unknown roles get the customer path.
func (c *Controller) DashboardURL() string {
	return c.Snapshot().Role().DashboardPath()
}

// SignIn verifies credentials against the store and returns the new session.
// On success the cached user is NOT set here; the store's signed-in
// notification does that, so state is only ever written from one code path.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*StoreSession, error) {
	sess, err := c.store.SignIn(ctx, email, password)
	if err != nil {
		c.logger.Info("sign in rejected for %s: %v", email, err)
		c.emitActivity(ctx, ActivityEventSignInFailure, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid email or password").
			WithTextCode(textCodeInvalidCredentials).
			WithCode(goerrors.CodeUnauthorized)
	}

	c.emitActivity(ctx, ActivityEventSignInSuccess, sess.UserID, map[string]any{"email": email})
	return sess, nil
}

// SignOut invalidates the session at the store. On success the cached user is
// cleared synchronously before returning. On failure the cache is left
// untouched: the session may still be valid, so optimistic clearing is
// deliberately avoided.
func (c *Controller) SignOut(ctx context.Context) error {
	userID := ""
	if u, ok := c.CurrentUser(); ok {
		userID = u.ID.String()
	}

	if err := c.store.SignOut(ctx); err != nil {
		c.logger.Error("sign out failed, keeping local session: %v", err)
		c.emitActivity(ctx, ActivityEventSignOutFailure, userID, map[string]any{"error": err.Error()})
		return goerrors.Wrap(err, goerrors.CategoryOperation, "sign out failed").
			WithTextCode(textCodeSignOutFailed)
	}

	c.setAnonymous()
	c.emitActivity(ctx, ActivityEventSignOut, userID, nil)
	return nil
}

// Register creates the auth account, then the organization record when an
// organization name was supplied, then the profile row linking identity to
// names, organization, and role. Role at creation: business iff an
// organization name was given, customer otherwise.
//
// Partial failure after account creation is surfaced as
// RegistrationIncomplete: the auth account is left in place (no compensating
// delete) and the error metadata carries the orphaned identity. A later
// sign-in on that account degrades to a minimal customer-routed user until a
// profile row exists.
func (c *Controller) Register(ctx context.Context, reg Registration) error {
	sess, err := c.store.SignUp(ctx, reg.Email, reg.Password)
	if err != nil {
		c.emitActivity(ctx, ActivityEventRegistrationFailure, "", map[string]any{
			"email": reg.Email,
			"error": err.Error(),
		})
		return goerrors.Wrap(err, goerrors.CategoryOperation, "account creation failed")
	}

	role := RoleCustomer
	var orgID *uuid.UUID

	if name := strings.TrimSpace(reg.OrganizationName); name != "" {
		role = RoleBusiness
		org, err := c.store.InsertOrganization(ctx, &Organization{
			Name: name,
			Code: organizationCode(name),
		})
		if err != nil {
			return c.registrationIncomplete(ctx, sess.UserID, "organization creation failed", err)
		}
		orgID = &org.ID
	}

	profile := &Profile{
		Email:          reg.Email,
		FirstName:      reg.FirstName,
		LastName:       reg.LastName,
		OrganizationID: orgID,
		Role:           role,
	}
	if id, parseErr := uuid.Parse(sess.UserID); parseErr == nil {
		profile.ID = id
	}

	created, err := c.store.InsertProfile(ctx, profile)
	if err != nil {
		return c.registrationIncomplete(ctx, sess.UserID, "profile creation failed", err)
	}

	// The store's signed-in notification may have landed before the profile
	// row existed; overwrite the degraded record with the full one. The
	// assignment is idempotent with respect to later events.
	if current, ok := c.Session(); ok && current.UserID == sess.UserID {
		created.EnsureRole()
		c.setAuthenticated(created.SessionUser(), current)
	}

	c.emitActivity(ctx, ActivityEventRegistration, sess.UserID, map[string]any{
		"email": reg.Email,
		"role":  string(role),
	})
	return nil
}

func (c *Controller) registrationIncomplete(ctx context.Context, userID, msg string, err error) error {
	c.logger.Error("registration left orphaned auth account %s (%s): %v", userID, msg, err)
	c.emitActivity(ctx, ActivityEventRegistrationIncomplete, userID, map[string]any{
		"reason": msg,
		"error":  err.Error(),
	})
	return goerrors.Wrap(err, goerrors.CategoryOperation, "account created but profile setup failed, contact support").
		WithTextCode(textCodeRegistrationIncomplete).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{"identity": userID, "reason": msg})
}

// ResetPassword asks the store for an out-of-band reset link. It resolves
// whenever the store accepted the request, regardless of whether the email
// exists, so callers cannot enumerate accounts. Only transport or service
// errors fail.
func (c *Controller) ResetPassword(ctx context.Context, email string) error {
	if err := c.store.RequestPasswordReset(ctx, email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "password reset request failed")
	}
	c.emitActivity(ctx, ActivityEventPasswordResetRequested, "", map[string]any{"email": email})
	return nil
}

// UpdateProfile writes the changed fields to the profile row, then merges the
// same fields into the cached user optimistically. Requires an authenticated
// user; a store failure leaves the cache entirely untouched.
func (c *Controller) UpdateProfile(ctx context.Context, patch ProfilePatch) error {
	user, ok := c.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}

	if patch.IsEmpty() {
		return nil
	}

	if _, err := c.store.UpdateProfile(ctx, user.ID.String(), patch); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "profile update failed").
			WithTextCode(textCodeProfileUpdateFailed)
	}

	c.mu.Lock()
	if c.user != nil && c.user.ID == user.ID {
		merged := *c.user
		if patch.FirstName != nil {
			merged.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			merged.LastName = *patch.LastName
		}
		if patch.Phone != nil {
			merged.Phone = *patch.Phone
		}
		c.user = &merged
	}
	c.mu.Unlock()

	c.emitActivity(ctx, ActivityEventProfileUpdated, user.ID.String(), nil)
	return nil
}

func (c *Controller) emitActivity(ctx context.Context, eventType ActivityEventType, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(c.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: c.now(),
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("activity sink record error: %v", err)
	}
}

// organizationCode derives a stable short code from the organization name.
func organizationCode(name string) string {
	cleaned := strings.ToUpper(strings.Join(strings.Fields(name), "-"))
	if len(cleaned) > 12 {
		cleaned = cleaned[:12]
	}
	return "ORG-" + cleaned
}
