package session

import "errors"

var (
	NotAuthenticatedErr  = errors.New("not authenticated")
	NoRefreshTokenErr    = errors.New("no refresh token")
	MalformedTokenErr    = errors.New("malformed access token")
	InvalidRoleErr       = errors.New("invalid role")
	PasswordMismatchErr  = errors.New("passwords do not match")
	MissingCredentialErr = errors.New("username and password are required")
)
