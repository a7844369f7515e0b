package session

import "context"

// State describes where the session sits in its lifecycle.
// A freshly constructed Manager starts in StateUnknown until Bootstrap has
// validated (or discarded) whatever tokens survived the last run.
type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// RoleType identifies which portal a user belongs to.
type RoleType string

const (
	RoleAdmin     RoleType = "admin"
	RoleVendor    RoleType = "vendor"
	RoleStayOwner RoleType = "stay_owner"
)

// Identity holds the user attributes decoded from a valid access token.
// These claims are display data for the client; authorization is always
// re-checked server-side on every request.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     RoleType
	Approved bool
}

// TokenPair is the access/refresh token pair issued at login. The access
// token is short-lived and carries the identity claims; the refresh token is
// long-lived and only ever exchanged for a new access token.
type TokenPair struct {
	Access  string
	Refresh string
}

// Empty reports whether no tokens are present.
func (tp TokenPair) Empty() bool {
	return tp.Access == "" && tp.Refresh == ""
}

// Registration carries the fields for creating a new portal account.
// Vendor and stay-owner accounts always require admin approval before their
// first login.
type Registration struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Role            RoleType
	FirstName       string
	LastName        string
	BusinessName    string
	BusinessAddress string
}

// RegistrationResult is returned after a successful registration.
type RegistrationResult struct {
	RequiresApproval bool
	Message          string
}

// API is the slice of the portal's authentication endpoints the Manager
// consumes. Implemented by portalapi.Client; faked in sessionfakes for tests.
type API interface {
	Login(ctx context.Context, username, password string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Register(ctx context.Context, form Registration) (string, error)
}

// Store persists the token pair across runs. Save and Clear must leave the
// store holding exactly the written state; Load on an empty store returns a
// zero TokenPair and no error.
type Store interface {
	Load() (TokenPair, error)
	Save(tokens TokenPair) error
	Clear() error
}
