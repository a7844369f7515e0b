package sessionfakes

import (
	"sync"

	"github.com/tourstack/go-portal-client/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory implementation of session.Store.
type FakeStore struct {
	lock   sync.Mutex
	tokens session.TokenPair

	LoadErr  error
	SaveErr  error
	ClearErr error

	SaveCalls  int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (f *FakeStore) Load() (session.TokenPair, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.LoadErr != nil {
		return session.TokenPair{}, f.LoadErr
	}
	return f.tokens, nil
}

func (f *FakeStore) Save(tokens session.TokenPair) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.SaveCalls++
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.tokens = tokens
	return nil
}

func (f *FakeStore) Clear() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ClearCalls++
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.tokens = session.TokenPair{}
	return nil
}

// Tokens returns the currently stored pair, for assertions.
func (f *FakeStore) Tokens() session.TokenPair {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.tokens
}

// Seed pre-loads the store with a token pair, simulating a previous run.
func (f *FakeStore) Seed(tokens session.TokenPair) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.tokens = tokens
}
