// Package guard decides whether a role-restricted page may be shown for the
// current session. Decide is a pure function; performing the redirect or
// rendering is left to a thin adapter so the decision logic stays
// unit-testable.
package guard

import (
	"slices"

	"github.com/tourstack/go-portal-client/session"
)

// SignInPath is where unauthenticated visitors are sent. The originally
// requested path is not carried along; role portals have no deep-link
// return.
const SignInPath = "/login"

// Action is the guard's verdict for a page request.
type Action int

const (
	// ShowLoading means bootstrap is still in flight; make no redirect
	// decision yet.
	ShowLoading Action = iota
	// Redirect means navigate to Decision.Path instead of rendering.
	Redirect
	// ShowPending means render a blocking "pending approval" notice in
	// place of the page.
	ShowPending
	// Render means show the requested page.
	Render
)

func (a Action) String() string {
	switch a {
	case ShowLoading:
		return "loading"
	case Redirect:
		return "redirect"
	case ShowPending:
		return "pending-approval"
	default:
		return "render"
	}
}

// Decision is the guard's full answer; Path is set only for Redirect.
type Decision struct {
	Action Action
	Path   string
}

// Requirements declares what a page demands of the session.
type Requirements struct {
	AllowedRoles    []session.RoleType
	RequireApproval bool
}

// rolePaths maps each role to its default landing page.
var rolePaths = map[session.RoleType]string{
	session.RoleAdmin:     "/admin/dashboard",
	session.RoleVendor:    "/vendor/dashboard",
	session.RoleStayOwner: "/stay-owner/dashboard",
}

// HomePath returns the default landing page for a role, falling back to the
// site root for anything unrecognized.
func HomePath(role session.RoleType) string {
	if path, ok := rolePaths[role]; ok {
		return path
	}
	return "/"
}

// Decide resolves a page request against the current session state.
func Decide(state session.State, identity *session.Identity, req Requirements) Decision {
	switch state {
	case session.StateUnknown:
		return Decision{Action: ShowLoading}
	case session.StateUnauthenticated:
		return Decision{Action: Redirect, Path: SignInPath}
	}

	if !slices.Contains(req.AllowedRoles, identity.Role) {
		// Wrong portal: send the user to their own landing page rather
		// than ending the session.
		return Decision{Action: Redirect, Path: HomePath(identity.Role)}
	}

	if req.RequireApproval && !identity.Approved {
		return Decision{Action: ShowPending}
	}

	return Decision{Action: Render}
}
