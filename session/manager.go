package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Deps holds the external dependencies for the Manager.
type Deps struct {
	API   API   // Portal authentication endpoints
	Store Store // Persisted token storage
}

// Manager owns the current session: the authenticated identity, the token
// pair, and the lifecycle state. It is the only component allowed to mutate
// them, and it keeps the persisted store and in-memory state consistent by
// updating both within the same operation.
//
// Invariant: identity is non-nil iff an access token is held and it was not
// expired at the last check. The two are never set independently.
type Manager struct {
	deps    Deps
	nowTime func() time.Time // nowTime function (injectable for testing)
	log     zerolog.Logger

	mu       sync.Mutex
	state    State
	identity *Identity
	tokens   TokenPair
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for internal state transitions.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New initializes a Manager with required dependencies. The Manager starts
// in StateUnknown; call Bootstrap before trusting its state.
func New(deps Deps, options ...Option) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("[session.New] API is required")
	}
	if deps.Store == nil {
		return nil, errors.New("[session.New] Store is required")
	}

	m := &Manager{
		deps:    deps,
		nowTime: time.Now,
		log:     zerolog.Nop(),
		state:   StateUnknown,
	}

	for _, opt := range options {
		opt(m)
	}

	return m, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns a copy of the authenticated identity, or nil when not
// authenticated.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// AccessToken returns the current access token, or "" when not
// authenticated. Intended for attaching Authorization headers to portal
// requests.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.Access
}

// Bootstrap validates whatever tokens survived the previous run and resolves
// the initial Unknown state. It runs once at startup. Failures are handled
// internally: an unusable persisted session is cleared and the Manager lands
// in StateUnauthenticated.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.deps.Store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("bootstrap: token store unreadable")
		m.clearLocked()
		return m.state
	}

	if tokens.Access == "" {
		m.log.Debug().Msg("bootstrap: no persisted session")
		m.state = StateUnauthenticated
		return m.state
	}

	identity, expiry, err := decodeAccessToken(tokens.Access)
	if err != nil {
		// Malformed is treated identically to absent: never partially trust.
		m.log.Warn().Err(err).Msg("bootstrap: discarding undecodable access token")
		m.clearLocked()
		return m.state
	}

	if m.nowTime().Before(expiry) {
		m.tokens = tokens
		m.identity = identity
		m.state = StateAuthenticated
		m.log.Info().Str("username", identity.Username).Msg("bootstrap: session restored")
		return m.state
	}

	// Access token expired; one silent refresh attempt, then give up.
	if err := m.refreshLocked(ctx, tokens); err != nil {
		m.log.Info().Err(err).Msg("bootstrap: refresh failed, session cleared")
		m.clearLocked()
		return m.state
	}

	m.log.Info().Str("username", m.identity.Username).Msg("bootstrap: session refreshed")
	return m.state
}

// Login authenticates with the portal and establishes a new session. On
// failure the session is left untouched and the server's reason is returned
// to the caller, never swallowed.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return MissingCredentialErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tokens, err := m.deps.API.Login(ctx, username, password)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] api.Login")
	}

	identity, expiry, err := decodeAccessToken(tokens.Access)
	if err != nil {
		return errors.Wrap(err, "[Manager.Login] decode issued token")
	}
	if !m.nowTime().Before(expiry) {
		return errors.New("[Manager.Login] server issued an already-expired token")
	}

	if err := m.deps.Store.Save(tokens); err != nil {
		return errors.Wrap(err, "[Manager.Login] store.Save")
	}

	m.tokens = tokens
	m.identity = identity
	m.state = StateAuthenticated
	m.log.Info().Str("username", identity.Username).Str("role", string(identity.Role)).Msg("logged in")
	return nil
}

// Logout clears the session from memory and persisted storage. It is
// synchronous, requires no network call, and is idempotent.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearLocked()
	m.log.Info().Msg("logged out")
	return nil
}

// Refresh exchanges the refresh token for a new access token. The refresh
// token itself never rotates. Any failure is terminal for the session: both
// tokens are cleared and the user must log in again.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens.Refresh == "" {
		return NoRefreshTokenErr
	}

	if err := m.refreshLocked(ctx, m.tokens); err != nil {
		m.clearLocked()
		return errors.Wrap(err, "[Manager.Refresh] refresh")
	}
	return nil
}

// Register creates a new portal account. It is a side channel: it never
// creates a session, even on success. Vendor and stay-owner accounts always
// require admin approval before first login; this is a property of the
// portal, not something the server response decides.
func (m *Manager) Register(ctx context.Context, form Registration) (RegistrationResult, error) {
	if form.Role != RoleVendor && form.Role != RoleStayOwner {
		return RegistrationResult{}, InvalidRoleErr
	}
	if form.Password != form.PasswordConfirm {
		return RegistrationResult{}, PasswordMismatchErr
	}

	message, err := m.deps.API.Register(ctx, form)
	if err != nil {
		return RegistrationResult{}, errors.Wrap(err, "[Manager.Register] api.Register")
	}

	return RegistrationResult{
		RequiresApproval: true,
		Message:          message,
	}, nil
}

// refreshLocked performs the refresh call and, on success, commits the new
// access token to the store and memory together. The caller holds the lock
// and handles cleanup on error.
func (m *Manager) refreshLocked(ctx context.Context, tokens TokenPair) error {
	if tokens.Refresh == "" {
		return NoRefreshTokenErr
	}

	access, err := m.deps.API.Refresh(ctx, tokens.Refresh)
	if err != nil {
		return err
	}

	identity, expiry, err := decodeAccessToken(access)
	if err != nil {
		return err
	}
	if !m.nowTime().Before(expiry) {
		return errors.New("refreshed token already expired")
	}

	next := TokenPair{Access: access, Refresh: tokens.Refresh}
	if err := m.deps.Store.Save(next); err != nil {
		return err
	}

	m.tokens = next
	m.identity = identity
	m.state = StateAuthenticated
	return nil
}

// clearLocked drops the session from memory and storage. Store failures are
// logged but do not resurrect the in-memory session.
func (m *Manager) clearLocked() {
	if err := m.deps.Store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("token store clear failed")
	}
	m.tokens = TokenPair{}
	m.identity = nil
	m.state = StateUnauthenticated
}
