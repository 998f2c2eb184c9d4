package nexus_test

import (
	"context"
	"database/sql"
	"sync"

	nexus "github.com/laxmi-narasimha26/b2b-commerce-nexus"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockActivitySink implements nexus.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event nexus.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRepositoryManager implements nexus.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(context.Context, bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Profiles() nexus.Profiles {
	args := m.Called()
	return args.Get(0).(nexus.Profiles)
}

func (m *MockRepositoryManager) Organizations() nexus.Organizations {
	args := m.Called()
	return args.Get(0).(nexus.Organizations)
}

func (m *MockRepositoryManager) PasswordResets() repository.Repository[*nexus.PasswordReset] {
	args := m.Called()
	return args.Get(0).(repository.Repository[*nexus.PasswordReset])
}

// MockProfiles implements nexus.Profiles. The embedded interface covers
// the methods a test never reaches; calling one of those panics.
type MockProfiles struct {
	nexus.Profiles
	mock.Mock
}

func (m *MockProfiles) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*nexus.Profile, error) {
	args := m.Called(ctx, identifier, criteria)
	record, _ := args.Get(0).(*nexus.Profile)
	return record, args.Error(1)
}

func (m *MockProfiles) Create(ctx context.Context, record *nexus.Profile, criteria ...repository.InsertCriteria) (*nexus.Profile, error) {
	args := m.Called(ctx, record, criteria)
	created, _ := args.Get(0).(*nexus.Profile)
	return created, args.Error(1)
}

func (m *MockProfiles) Upsert(ctx context.Context, record *nexus.Profile, criteria ...repository.UpdateCriteria) (*nexus.Profile, error) {
	args := m.Called(ctx, record, criteria)
	updated, _ := args.Get(0).(*nexus.Profile)
	return updated, args.Error(1)
}

func (m *MockProfiles) ApplyPatch(ctx context.Context, id uuid.UUID, patch nexus.ProfilePatch) (*nexus.Profile, error) {
	args := m.Called(ctx, id, patch)
	updated, _ := args.Get(0).(*nexus.Profile)
	return updated, args.Error(1)
}

func (m *MockProfiles) TrackSuccessfulLogin(ctx context.Context, profile *nexus.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfiles) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockProfiles) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockOrganizations implements nexus.Organizations
type MockOrganizations struct {
	nexus.Organizations
	mock.Mock
}

func (m *MockOrganizations) Create(ctx context.Context, record *nexus.Organization, criteria ...repository.InsertCriteria) (*nexus.Organization, error) {
	args := m.Called(ctx, record, criteria)
	created, _ := args.Get(0).(*nexus.Organization)
	return created, args.Error(1)
}

func (m *MockOrganizations) GetByCode(ctx context.Context, code string) (*nexus.Organization, error) {
	args := m.Called(ctx, code)
	record, _ := args.Get(0).(*nexus.Organization)
	return record, args.Error(1)
}

func (m *MockOrganizations) UpdateStatus(ctx context.Context, id uuid.UUID, status nexus.OrganizationStatus) (*nexus.Organization, error) {
	args := m.Called(ctx, id, status)
	record, _ := args.Get(0).(*nexus.Organization)
	return record, args.Error(1)
}

// MockPasswordResets implements repository.Repository[*nexus.PasswordReset]
type MockPasswordResets struct {
	repository.Repository[*nexus.PasswordReset]
	mock.Mock
}

func (m *MockPasswordResets) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*nexus.PasswordReset, error) {
	args := m.Called(ctx, id, criteria)
	record, _ := args.Get(0).(*nexus.PasswordReset)
	return record, args.Error(1)
}

func (m *MockPasswordResets) Create(ctx context.Context, record *nexus.PasswordReset, criteria ...repository.InsertCriteria) (*nexus.PasswordReset, error) {
	args := m.Called(ctx, record, criteria)
	created, _ := args.Get(0).(*nexus.PasswordReset)
	return created, args.Error(1)
}

func (m *MockPasswordResets) UpdateTx(ctx context.Context, tx bun.IDB, record *nexus.PasswordReset, criteria ...repository.UpdateCriteria) (*nexus.PasswordReset, error) {
	args := m.Called(ctx, tx, record, criteria)
	updated, _ := args.Get(0).(*nexus.PasswordReset)
	return updated, args.Error(1)
}

// stubStore is a scriptable in-memory SessionStore for controller tests.
// Default behavior is an empty, healthy store; tests override the function
// fields they care about.
type stubStore struct {
	SignInFn       func(ctx context.Context, email, password string) (*nexus.StoreSession, error)
	SignUpFn       func(ctx context.Context, email, password string) (*nexus.StoreSession, error)
	SignOutFn      func(ctx context.Context) error
	ResetFn        func(ctx context.Context, email string) error
	CurrentFn      func(ctx context.Context) (*nexus.StoreSession, error)
	ProfileFn      func(ctx context.Context, userID string) (*nexus.Profile, error)
	InsertProfFn   func(ctx context.Context, profile *nexus.Profile) (*nexus.Profile, error)
	UpdateProfFn   func(ctx context.Context, userID string, patch nexus.ProfilePatch) (*nexus.Profile, error)
	InsertOrgFn    func(ctx context.Context, org *nexus.Organization) (*nexus.Organization, error)

	mu       sync.Mutex
	subs     []chan nexus.AuthChange
	released int
}

func (s *stubStore) SignIn(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	if s.SignInFn != nil {
		return s.SignInFn(ctx, email, password)
	}
	return nil, nexus.ErrMismatchedHashAndPassword
}

func (s *stubStore) SignUp(ctx context.Context, email, password string) (*nexus.StoreSession, error) {
	if s.SignUpFn != nil {
		return s.SignUpFn(ctx, email, password)
	}
	return &nexus.StoreSession{UserID: uuid.NewString(), Email: email}, nil
}

func (s *stubStore) SignOut(ctx context.Context) error {
	if s.SignOutFn != nil {
		return s.SignOutFn(ctx)
	}
	return nil
}

func (s *stubStore) RequestPasswordReset(ctx context.Context, email string) error {
	if s.ResetFn != nil {
		return s.ResetFn(ctx, email)
	}
	return nil
}

func (s *stubStore) CurrentSession(ctx context.Context) (*nexus.StoreSession, error) {
	if s.CurrentFn != nil {
		return s.CurrentFn(ctx)
	}
	return nil, nil
}

func (s *stubStore) Profile(ctx context.Context, userID string) (*nexus.Profile, error) {
	if s.ProfileFn != nil {
		return s.ProfileFn(ctx, userID)
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubStore) InsertProfile(ctx context.Context, profile *nexus.Profile) (*nexus.Profile, error) {
	if s.InsertProfFn != nil {
		return s.InsertProfFn(ctx, profile)
	}
	return profile, nil
}

func (s *stubStore) UpdateProfile(ctx context.Context, userID string, patch nexus.ProfilePatch) (*nexus.Profile, error) {
	if s.UpdateProfFn != nil {
		return s.UpdateProfFn(ctx, userID, patch)
	}
	return &nexus.Profile{}, nil
}

func (s *stubStore) InsertOrganization(ctx context.Context, org *nexus.Organization) (*nexus.Organization, error) {
	if s.InsertOrgFn != nil {
		return s.InsertOrgFn(ctx, org)
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	return org, nil
}

func (s *stubStore) Subscribe() (<-chan nexus.AuthChange, func()) {
	ch := make(chan nexus.AuthChange, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			s.released++
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, release
}

// broadcast delivers a change to every open subscription.
func (s *stubStore) broadcast(change nexus.AuthChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		ch <- change
	}
}

func (s *stubStore) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// MockConfig implements nexus.Config
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	audience, _ := args.Get(0).([]string)
	return audience
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSignInRoute() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetRejectedRouteKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetRejectedRouteDefault() string {
	args := m.Called()
	return args.String(0)
}

// routerContext lets MockContext embed router.Context without the embedded
// field name colliding with the Context() method.
type routerContext = router.Context

// MockContext implements router.Context
type MockContext struct {
	routerContext
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
