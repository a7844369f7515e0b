package sessionfakes

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tourstack/go-portal-client/session"
)

var _ session.API = (*FakeAPI)(nil)

// FakeAPI is a scriptable in-memory implementation of session.API.
type FakeAPI struct {
	lock sync.Mutex

	LoginTokens session.TokenPair
	LoginErr    error
	LoginCalls  int

	RefreshAccess string
	RefreshErr    error
	RefreshCalls  int

	RegisterMessage string
	RegisterErr     error
	RegisterCalls   int
	LastForm        session.Registration
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{}
}

func (f *FakeAPI) Login(ctx context.Context, username, password string) (session.TokenPair, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LoginCalls++
	if f.LoginErr != nil {
		return session.TokenPair{}, f.LoginErr
	}
	return f.LoginTokens, nil
}

func (f *FakeAPI) Refresh(ctx context.Context, refreshToken string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RefreshCalls++
	if f.RefreshErr != nil {
		return "", f.RefreshErr
	}
	if refreshToken == "" {
		return "", errors.New("empty refresh token")
	}
	return f.RefreshAccess, nil
}

func (f *FakeAPI) Register(ctx context.Context, form session.Registration) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RegisterCalls++
	f.LastForm = form
	if f.RegisterErr != nil {
		return "", f.RegisterErr
	}
	return f.RegisterMessage, nil
}
