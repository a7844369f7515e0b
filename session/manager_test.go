package session_test

import (
	"context"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tourstack/go-portal-client/session"
	"github.com/tourstack/go-portal-client/session/sessionfakes"
)

const (
	testUserID   = 42
	testUsername = "alice"
	testEmail    = "alice@example.com"
	testPassword = "password123"
	testRefresh  = "refresh-token-1"
)

// fixedNow keeps expiry arithmetic deterministic across the suite.
var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type testFixture struct {
	api     *sessionfakes.FakeAPI
	store   *sessionfakes.FakeStore
	manager *session.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	api := sessionfakes.NewFakeAPI()
	store := sessionfakes.NewFakeStore()

	manager, err := session.New(
		session.Deps{API: api, Store: store},
		session.WithNowTime(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	return &testFixture{api: api, store: store, manager: manager}
}

type tokenSpec struct {
	username string
	role     session.RoleType
	approved bool
	expires  time.Time
}

// signToken builds a signed access token carrying the portal's claims. The
// Manager never verifies the signature, but real tokens are signed, so the
// tests use signed ones too.
func signToken(t *testing.T, spec tokenSpec) string {
	t.Helper()

	if spec.username == "" {
		spec.username = testUsername
	}
	if spec.role == "" {
		spec.role = session.RoleVendor
	}
	if spec.expires.IsZero() {
		spec.expires = fixedNow.Add(15 * time.Minute)
	}

	claims := jwtlib.MapClaims{
		"user_id":     testUserID,
		"username":    spec.username,
		"email":       testEmail,
		"role":        string(spec.role),
		"is_approved": spec.approved,
		"exp":         spec.expires.Unix(),
	}
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestNew(t *testing.T) {
	t.Run("requires API", func(t *testing.T) {
		_, err := session.New(session.Deps{Store: sessionfakes.NewFakeStore()})
		require.Error(t, err)
	})

	t.Run("requires Store", func(t *testing.T) {
		_, err := session.New(session.Deps{API: sessionfakes.NewFakeAPI()})
		require.Error(t, err)
	})

	t.Run("starts unknown", func(t *testing.T) {
		f := setupTestFixture(t)
		require.Equal(t, session.StateUnknown, f.manager.State())
		require.Nil(t, f.manager.Identity())
	})
}

func TestBootstrap(t *testing.T) {
	t.Run("no persisted tokens", func(t *testing.T) {
		f := setupTestFixture(t)

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateUnauthenticated, state)
		require.Nil(t, f.manager.Identity())
		require.Zero(t, f.api.LoginCalls)
		require.Zero(t, f.api.RefreshCalls)
	})

	t.Run("valid access token restores session", func(t *testing.T) {
		f := setupTestFixture(t)
		access := signToken(t, tokenSpec{role: session.RoleAdmin, approved: true})
		f.store.Seed(session.TokenPair{Access: access, Refresh: testRefresh})

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateAuthenticated, state)
		identity := f.manager.Identity()
		require.NotNil(t, identity)
		require.Equal(t, "42", identity.ID)
		require.Equal(t, testUsername, identity.Username)
		require.Equal(t, session.RoleAdmin, identity.Role)
		require.True(t, identity.Approved)
		require.Zero(t, f.api.RefreshCalls)
	})

	t.Run("expired access token refreshes silently", func(t *testing.T) {
		f := setupTestFixture(t)
		expired := signToken(t, tokenSpec{expires: fixedNow.Add(-10 * time.Second)})
		f.store.Seed(session.TokenPair{Access: expired, Refresh: testRefresh})
		f.api.RefreshAccess = signToken(t, tokenSpec{approved: true})

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateAuthenticated, state)
		require.Equal(t, 1, f.api.RefreshCalls)
		identity := f.manager.Identity()
		require.NotNil(t, identity)
		require.True(t, identity.Approved)
		// The refresh token is retained, only the access token changes.
		require.Equal(t, testRefresh, f.store.Tokens().Refresh)
		require.Equal(t, f.api.RefreshAccess, f.store.Tokens().Access)
	})

	t.Run("expired token and failed refresh clears everything", func(t *testing.T) {
		f := setupTestFixture(t)
		expired := signToken(t, tokenSpec{expires: fixedNow.Add(-time.Hour)})
		f.store.Seed(session.TokenPair{Access: expired, Refresh: testRefresh})
		f.api.RefreshErr = errors.New("token is blacklisted")

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateUnauthenticated, state)
		require.Nil(t, f.manager.Identity())
		require.True(t, f.store.Tokens().Empty())
	})

	t.Run("malformed access token clears everything", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.Seed(session.TokenPair{Access: "not-a-jwt", Refresh: testRefresh})

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateUnauthenticated, state)
		require.Nil(t, f.manager.Identity())
		require.True(t, f.store.Tokens().Empty())
		require.Zero(t, f.api.RefreshCalls)
	})

	t.Run("unreadable store lands unauthenticated", func(t *testing.T) {
		f := setupTestFixture(t)
		f.store.LoadErr = errors.New("disk exploded")

		state := f.manager.Bootstrap(context.Background())

		require.Equal(t, session.StateUnauthenticated, state)
		require.Nil(t, f.manager.Identity())
	})
}

func TestLogin(t *testing.T) {
	t.Run("success establishes and persists the session", func(t *testing.T) {
		f := setupTestFixture(t)
		access := signToken(t, tokenSpec{role: session.RoleVendor, approved: true})
		f.api.LoginTokens = session.TokenPair{Access: access, Refresh: testRefresh}

		err := f.manager.Login(context.Background(), testUsername, testPassword)
		require.NoError(t, err)

		require.Equal(t, session.StateAuthenticated, f.manager.State())
		identity := f.manager.Identity()
		require.NotNil(t, identity)
		require.Equal(t, testUsername, identity.Username)
		require.Equal(t, session.RoleVendor, identity.Role)
		require.Equal(t, access, f.store.Tokens().Access)
		require.Equal(t, testRefresh, f.store.Tokens().Refresh)
		require.Equal(t, access, f.manager.AccessToken())
	})

	t.Run("rejected credentials surface the server's reason", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginErr = errors.New("Invalid credentials")

		err := f.manager.Login(context.Background(), testUsername, "wrong")

		require.Error(t, err)
		require.Contains(t, err.Error(), "Invalid credentials")
		require.Equal(t, session.StateUnknown, f.manager.State())
		require.Nil(t, f.manager.Identity())
		require.True(t, f.store.Tokens().Empty())
	})

	t.Run("missing credentials fail before any network call", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.manager.Login(context.Background(), "", "")

		require.ErrorIs(t, err, session.MissingCredentialErr)
		require.Zero(t, f.api.LoginCalls)
	})

	t.Run("undecodable issued token never mutates state", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginTokens = session.TokenPair{Access: "garbage", Refresh: testRefresh}

		err := f.manager.Login(context.Background(), testUsername, testPassword)

		require.Error(t, err)
		require.Nil(t, f.manager.Identity())
		require.True(t, f.store.Tokens().Empty())
		require.Zero(t, f.store.SaveCalls)
	})

	t.Run("reload after login restores the same identity", func(t *testing.T) {
		f := setupTestFixture(t)
		access := signToken(t, tokenSpec{role: session.RoleStayOwner, approved: true})
		f.api.LoginTokens = session.TokenPair{Access: access, Refresh: testRefresh}

		require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))
		loggedIn := f.manager.Identity()

		// Simulate a process restart sharing the same persisted store.
		reloaded, err := session.New(
			session.Deps{API: f.api, Store: f.store},
			session.WithNowTime(func() time.Time { return fixedNow }),
		)
		require.NoError(t, err)
		require.Equal(t, session.StateAuthenticated, reloaded.Bootstrap(context.Background()))
		require.Equal(t, loggedIn, reloaded.Identity())
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears memory and storage", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginTokens = session.TokenPair{Access: signToken(t, tokenSpec{}), Refresh: testRefresh}
		require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))

		require.NoError(t, f.manager.Logout())

		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.Nil(t, f.manager.Identity())
		require.Empty(t, f.manager.AccessToken())
		require.True(t, f.store.Tokens().Empty())
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginTokens = session.TokenPair{Access: signToken(t, tokenSpec{}), Refresh: testRefresh}
		require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))

		require.NoError(t, f.manager.Logout())
		require.NoError(t, f.manager.Logout())

		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.True(t, f.store.Tokens().Empty())
	})
}

func TestRefresh(t *testing.T) {
	t.Run("replaces only the access token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginTokens = session.TokenPair{Access: signToken(t, tokenSpec{}), Refresh: testRefresh}
		require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))

		f.api.RefreshAccess = signToken(t, tokenSpec{approved: true, expires: fixedNow.Add(time.Hour)})
		require.NoError(t, f.manager.Refresh(context.Background()))

		require.Equal(t, session.StateAuthenticated, f.manager.State())
		require.Equal(t, f.api.RefreshAccess, f.manager.AccessToken())
		require.Equal(t, testRefresh, f.store.Tokens().Refresh)
		require.True(t, f.manager.Identity().Approved)
	})

	t.Run("failure is terminal for the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.LoginTokens = session.TokenPair{Access: signToken(t, tokenSpec{}), Refresh: testRefresh}
		require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))

		f.api.RefreshErr = errors.New("refresh rejected")
		err := f.manager.Refresh(context.Background())

		require.Error(t, err)
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.Nil(t, f.manager.Identity())
		require.True(t, f.store.Tokens().Empty())
	})

	t.Run("without a refresh token", func(t *testing.T) {
		f := setupTestFixture(t)

		err := f.manager.Refresh(context.Background())

		require.ErrorIs(t, err, session.NoRefreshTokenErr)
		require.Zero(t, f.api.RefreshCalls)
	})
}

func TestRegister(t *testing.T) {
	validForm := func() session.Registration {
		return session.Registration{
			Username:        "bob",
			Email:           "bob@example.com",
			Password:        testPassword,
			PasswordConfirm: testPassword,
			Role:            session.RoleVendor,
		}
	}

	t.Run("vendor always requires approval", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.RegisterMessage = "Account created"

		result, err := f.manager.Register(context.Background(), validForm())

		require.NoError(t, err)
		require.True(t, result.RequiresApproval)
		require.Equal(t, "Account created", result.Message)
	})

	t.Run("stay owner always requires approval", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.RegisterMessage = "Account created"
		form := validForm()
		form.Role = session.RoleStayOwner

		result, err := f.manager.Register(context.Background(), form)

		require.NoError(t, err)
		require.True(t, result.RequiresApproval)
	})

	t.Run("never creates a session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.RegisterMessage = "Account created"

		_, err := f.manager.Register(context.Background(), validForm())

		require.NoError(t, err)
		require.NotEqual(t, session.StateAuthenticated, f.manager.State())
		require.True(t, f.store.Tokens().Empty())
	})

	t.Run("admin role is not registrable", func(t *testing.T) {
		f := setupTestFixture(t)
		form := validForm()
		form.Role = session.RoleAdmin

		_, err := f.manager.Register(context.Background(), form)

		require.ErrorIs(t, err, session.InvalidRoleErr)
		require.Zero(t, f.api.RegisterCalls)
	})

	t.Run("password confirmation must match", func(t *testing.T) {
		f := setupTestFixture(t)
		form := validForm()
		form.PasswordConfirm = "different"

		_, err := f.manager.Register(context.Background(), form)

		require.ErrorIs(t, err, session.PasswordMismatchErr)
		require.Zero(t, f.api.RegisterCalls)
	})

	t.Run("server validation errors propagate", func(t *testing.T) {
		f := setupTestFixture(t)
		f.api.RegisterErr = errors.New("email: already in use; username: too short")

		_, err := f.manager.Register(context.Background(), validForm())

		require.Error(t, err)
		require.Contains(t, err.Error(), "email: already in use")
	})
}

// The session invariant: an identity exists iff a non-expired access token is
// held. Walk the lifecycle and check at every stop.
func TestIdentityTokenInvariant(t *testing.T) {
	f := setupTestFixture(t)

	check := func(stage string) {
		t.Helper()
		identity := f.manager.Identity()
		token := f.manager.AccessToken()
		if identity != nil {
			require.NotEmpty(t, token, "stage %s: identity without token", stage)
		} else {
			require.Empty(t, token, "stage %s: token without identity", stage)
		}
	}

	check("initial")

	f.manager.Bootstrap(context.Background())
	check("after empty bootstrap")

	f.api.LoginErr = errors.New("Invalid credentials")
	_ = f.manager.Login(context.Background(), testUsername, "wrong")
	check("after failed login")

	f.api.LoginErr = nil
	f.api.LoginTokens = session.TokenPair{Access: signToken(t, tokenSpec{}), Refresh: testRefresh}
	require.NoError(t, f.manager.Login(context.Background(), testUsername, testPassword))
	check("after login")

	f.api.RefreshErr = errors.New("refresh rejected")
	_ = f.manager.Refresh(context.Background())
	check("after failed refresh")

	require.NoError(t, f.manager.Logout())
	check("after logout")
}
