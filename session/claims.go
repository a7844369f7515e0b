package session

import (
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// decodeAccessToken extracts the identity claims and expiry from an access
// token without verifying its signature. The client never holds the signing
// key; the token is opaque for authorization purposes and the decoded claims
// are trusted only as display data.
func decodeAccessToken(raw string) (*Identity, time.Time, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, time.Time{}, errors.Wrap(MalformedTokenErr, err.Error())
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, time.Time{}, errors.Wrap(MalformedTokenErr, "error extracting claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, time.Time{}, errors.Wrap(MalformedTokenErr, "missing exp claim")
	}

	username, _ := claims["username"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	approved, _ := claims["is_approved"].(bool)

	identity := &Identity{
		ID:       claimToID(claims["user_id"]),
		Username: username,
		Email:    email,
		Role:     RoleType(role),
		Approved: approved,
	}

	return identity, time.Unix(int64(exp), 0), nil
}

// claimToID normalises the user_id claim, which the portal backend emits as
// a JSON number.
func claimToID(claim any) string {
	switch v := claim.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
