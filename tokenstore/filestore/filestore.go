// Package filestore persists the session token pair in a file sealed with a
// locally generated key. The key lives next to the token file; the sealing
// keeps tokens out of casual grep/backup exposure, it is not a defence
// against an attacker who owns the directory.
package filestore

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/tourstack/go-portal-client/session"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	tokensFileName = "tokens.bin"
	keyFileName    = "store.key"

	keySize   = 32
	nonceSize = 24
)

var _ session.Store = (*Store)(nil)

// Store is a file-backed session.Store rooted at a data directory.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("[filestore.New] dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] create data dir")
	}
	return &Store{dir: dir}, nil
}

type persistedTokens struct {
	Access  string `json:"accessToken"`
	Refresh string `json:"refreshToken"`
}

// Load reads and unseals the persisted token pair. A missing token file is
// an empty store, not an error.
func (s *Store) Load() (session.TokenPair, error) {
	sealed, err := os.ReadFile(s.tokensPath())
	if os.IsNotExist(err) {
		return session.TokenPair{}, nil
	}
	if err != nil {
		return session.TokenPair{}, errors.Wrap(err, "[Store.Load] read token file")
	}
	if len(sealed) < nonceSize {
		return session.TokenPair{}, errors.New("[Store.Load] token file truncated")
	}

	key, err := s.loadKey()
	if err != nil {
		return session.TokenPair{}, errors.Wrap(err, "[Store.Load] load key")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return session.TokenPair{}, errors.New("[Store.Load] token file unsealing failed")
	}

	var tokens persistedTokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return session.TokenPair{}, errors.Wrap(err, "[Store.Load] unmarshal tokens")
	}

	return session.TokenPair{Access: tokens.Access, Refresh: tokens.Refresh}, nil
}

// Save seals and writes the token pair, replacing any previous file
// atomically.
func (s *Store) Save(tokens session.TokenPair) error {
	key, err := s.ensureKey()
	if err != nil {
		return errors.Wrap(err, "[Store.Save] ensure key")
	}

	plain, err := json.Marshal(persistedTokens{Access: tokens.Access, Refresh: tokens.Refresh})
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal tokens")
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrap(err, "[Store.Save] generate nonce")
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, key)

	tmp := s.tokensPath() + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return errors.Wrap(err, "[Store.Save] write token file")
	}
	if err := os.Rename(tmp, s.tokensPath()); err != nil {
		return errors.Wrap(err, "[Store.Save] replace token file")
	}
	return nil
}

// Clear removes the token file. Clearing an already-empty store succeeds.
// The key file is kept for the next session.
func (s *Store) Clear() error {
	if err := os.Remove(s.tokensPath()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[Store.Clear] remove token file")
	}
	return nil
}

func (s *Store) tokensPath() string {
	return filepath.Join(s.dir, tokensFileName)
}

func (s *Store) keyPath() string {
	return filepath.Join(s.dir, keyFileName)
}

func (s *Store) loadKey() (*[keySize]byte, error) {
	raw, err := os.ReadFile(s.keyPath())
	if err != nil {
		return nil, err
	}
	if len(raw) != keySize {
		return nil, errors.New("key file has wrong length")
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}

// ensureKey returns the store key, generating and persisting a fresh one on
// first use.
func (s *Store) ensureKey() (*[keySize]byte, error) {
	key, err := s.loadKey()
	if err == nil {
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	var fresh [keySize]byte
	if _, err := rand.Read(fresh[:]); err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	if err := os.WriteFile(s.keyPath(), fresh[:], 0o600); err != nil {
		return nil, errors.Wrap(err, "write key file")
	}
	return &fresh, nil
}
