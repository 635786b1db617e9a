// Package session persists the logged-in user between runs. The bearer
// token lives in the system keyring; the (non-secret) profile lives in a
// YAML file next to the config.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/spf13/viper"

	"github.com/communisafe/communisafe/internal/model"
)

const (
	serviceName = "communisafe"
	tokenKey    = "api-token"
)

// ErrNoSession is returned when no stored session exists.
var ErrNoSession = errors.New("no stored session")

// Session is the persisted identity of the logged-in user.
type Session struct {
	Token         string
	UserID        string
	Name          string
	Email         string
	Role          model.Role
	ContactNumber string
	Status        string
}

// Store reads and writes sessions.
type Store struct {
	profilePath string
}

// NewStore returns a Store keeping the profile at profilePath.
func NewStore(profilePath string) *Store {
	return &Store{profilePath: profilePath}
}

// DefaultProfilePath returns the default session profile location,
// ~/.config/communisafe/session.yaml.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "session.yaml")
	}
	return filepath.Join(home, ".config", "communisafe", "session.yaml")
}

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/communisafe/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("communisafe-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Save persists the session: token to the keyring, profile to disk.
func (s *Store) Save(sess Session) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: tokenKey, Data: []byte(sess.Token)}); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	dir := filepath.Dir(s.profilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(s.profilePath)
	v.SetConfigType("yaml")
	v.Set("user_id", sess.UserID)
	v.Set("name", sess.Name)
	v.Set("email", sess.Email)
	v.Set("role", string(sess.Role))
	v.Set("contact_number", sess.ContactNumber)
	v.Set("status", sess.Status)

	if err := v.WriteConfigAs(s.profilePath); err != nil {
		return fmt.Errorf("writing session profile %s: %w", s.profilePath, err)
	}
	return nil
}

// Load restores the stored session. Returns ErrNoSession when either the
// profile or the token is missing.
func (s *Store) Load() (Session, error) {
	v := viper.New()
	v.SetConfigFile(s.profilePath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return Session{}, ErrNoSession
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("reading session profile %s: %w", s.profilePath, err)
	}

	sess := Session{
		UserID:        v.GetString("user_id"),
		Name:          v.GetString("name"),
		Email:         v.GetString("email"),
		Role:          model.Role(v.GetString("role")),
		ContactNumber: v.GetString("contact_number"),
		Status:        v.GetString("status"),
	}
	if sess.UserID == "" {
		return Session{}, ErrNoSession
	}

	ring, err := openKeyring()
	if err != nil {
		return Session{}, err
	}
	item, err := ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("getting token: %w", err)
	}
	sess.Token = string(item.Data)
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the stored session. Called on logout and whenever the
// backend reports the account is no longer active.
func (s *Store) Clear() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(tokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing token: %w", err)
	}
	if err := os.Remove(s.profilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session profile %s: %w", s.profilePath, err)
	}
	return nil
}

// FromUser builds a Session from a login result.
func FromUser(token string, u model.User) Session {
	return Session{
		Token:         token,
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		ContactNumber: u.ContactNumber,
		Status:        u.Status,
	}
}
