package authserver

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// ErrUnknownUser is returned when no account matches an identifier.
var ErrUnknownUser = errors.New("unknown user")

// UserRecord is one account in the users file. Exactly one of Password
// (plaintext seed, hashed on load) or PasswordHash (bcrypt) is set.
type UserRecord struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Handle       string `yaml:"handle"`
	Introduction string `yaml:"introduction"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

type usersFile struct {
	Users []UserRecord `yaml:"users"`
}

// DefaultUsers is the built-in demo account.
func DefaultUsers() []UserRecord {
	return []UserRecord{
		{
			ID:           "koher",
			Name:         "Yuta Koshizawa",
			Handle:       "koher",
			Introduction: "ソフトウェアエンジニア。 Heart of Swift https://heart-of-swift.github.io を書きました。",
			Password:     "1234",
		},
	}
}

// UserStore holds accounts keyed by ID. Safe for concurrent use; Replace
// swaps the whole set atomically.
type UserStore struct {
	cost  int
	dummy []byte

	mu    sync.RWMutex
	users map[string]UserRecord
}

// NewUserStore hashes any plaintext seeds with the given bcrypt cost
// (0 uses bcrypt.DefaultCost).
func NewUserStore(records []UserRecord, cost int) (*UserStore, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("unknown-user"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	s := &UserStore{cost: cost, dummy: dummy}
	if err := s.Replace(records); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadUsersFile parses a YAML users file.
func LoadUsersFile(path string) ([]UserRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var f usersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	return f.Users, nil
}

// Replace validates records and swaps them in.
func (s *UserStore) Replace(records []UserRecord) error {
	next := make(map[string]UserRecord, len(records))
	for i, r := range records {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return fmt.Errorf("user %d: id is required", i)
		}
		if _, dup := next[r.ID]; dup {
			return fmt.Errorf("user %q: duplicate id", r.ID)
		}
		switch {
		case r.PasswordHash != "":
			if _, err := bcrypt.Cost([]byte(r.PasswordHash)); err != nil {
				return fmt.Errorf("user %q: invalid password_hash: %w", r.ID, err)
			}
		case r.Password != "":
			hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
			if err != nil {
				return fmt.Errorf("user %q: hash password: %w", r.ID, err)
			}
			r.PasswordHash = string(hash)
		default:
			return fmt.Errorf("user %q: password or password_hash is required", r.ID)
		}
		r.Password = ""
		if r.Handle == "" {
			r.Handle = r.ID
		}
		next[r.ID] = r
	}

	s.mu.Lock()
	s.users = next
	s.mu.Unlock()
	return nil
}

// Verify checks a password against the stored hash.
func (s *UserStore) Verify(id, password string) (UserRecord, error) {
	s.mu.RLock()
	u, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		// Unknown IDs cost the same as a wrong password.
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return UserRecord{}, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return UserRecord{}, fmt.Errorf("verify %q: %w", id, err)
	}
	return u, nil
}

// Get returns the record for id.
func (s *UserStore) Get(id string) (UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Len returns the number of accounts.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
