// Package session persists the client's credentials and server address
// between runs. It is a plain key-value store; all login/logout policy
// lives in the backend client.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Store exposes the persisted session state shared by the backend
// client and the CLI commands.
type Store interface {
	BaseAddress() string
	Username() string
	BearerToken() string
	CSRFToken() string
	LoggedIn() bool

	SetBaseAddress(addr string) error
	// SetCredentials records a successful login. Username must be
	// non-empty; the logged-in flag is only ever set here.
	SetCredentials(username string) error
	SetBearerToken(token string) error
	SetCSRFToken(token string) error

	// Logout clears username, both tokens and the logged-in flag.
	// The base address survives.
	Logout() error
}

const (
	keyBaseAddress = "base_address"
	keyUsername    = "username"
	keyBearerToken = "bearer_token"
	keyCSRFToken   = "csrf_token"
	keyLoggedIn    = "logged_in"
)

// FileStore is a Store backed by a YAML file managed through a
// dedicated viper instance. Every mutation writes the file.
type FileStore struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
}

// NewFileStore opens (or creates) the session file at path
func NewFileStore(path string) (*FileStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	// A missing file is a first launch, not an error
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return &FileStore{v: v, path: path}, nil
}

func (s *FileStore) BaseAddress() string { return s.getString(keyBaseAddress) }
func (s *FileStore) Username() string    { return s.getString(keyUsername) }
func (s *FileStore) BearerToken() string { return s.getString(keyBearerToken) }
func (s *FileStore) CSRFToken() string   { return s.getString(keyCSRFToken) }

func (s *FileStore) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetBool(keyLoggedIn)
}

func (s *FileStore) getString(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(key)
}

func (s *FileStore) SetBaseAddress(addr string) error {
	return s.set(map[string]interface{}{keyBaseAddress: addr})
}

func (s *FileStore) SetCredentials(username string) error {
	if username == "" {
		return fmt.Errorf("refusing to mark empty username as logged in")
	}
	return s.set(map[string]interface{}{
		keyUsername: username,
		keyLoggedIn: true,
	})
}

func (s *FileStore) SetBearerToken(token string) error {
	return s.set(map[string]interface{}{keyBearerToken: token})
}

func (s *FileStore) SetCSRFToken(token string) error {
	return s.set(map[string]interface{}{keyCSRFToken: token})
}

func (s *FileStore) Logout() error {
	return s.set(map[string]interface{}{
		keyUsername:    "",
		keyBearerToken: "",
		keyCSRFToken:   "",
		keyLoggedIn:    false,
	})
}

func (s *FileStore) set(values map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.v.Set(k, v)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and one-off runs
type MemStore struct {
	mu          sync.RWMutex
	baseAddress string
	username    string
	bearerToken string
	csrfToken   string
	loggedIn    bool
}

// NewMemStore creates an empty in-memory session
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) BaseAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseAddress
}

func (s *MemStore) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *MemStore) BearerToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bearerToken
}

func (s *MemStore) CSRFToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.csrfToken
}

func (s *MemStore) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *MemStore) SetBaseAddress(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseAddress = addr
	return nil
}

func (s *MemStore) SetCredentials(username string) error {
	if username == "" {
		return fmt.Errorf("refusing to mark empty username as logged in")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.loggedIn = true
	return nil
}

func (s *MemStore) SetBearerToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bearerToken = token
	return nil
}

func (s *MemStore) SetCSRFToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrfToken = token
	return nil
}

func (s *MemStore) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = ""
	s.bearerToken = ""
	s.csrfToken = ""
	s.loggedIn = false
	return nil
}
