package auth

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "salesdesk"
	sessionKey  = "session-user-id"
)

// SessionStore persists the active session's user id between runs.
type SessionStore interface {
	Save(userID string) error
	Load() (string, error)
	Clear() error
}

// KeyringSessionStore keeps the session in the system keyring.
type KeyringSessionStore struct{}

// openKeyring returns a configured keyring instance.
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
		FileDir:                  "~/.config/salesdesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("salesdesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Save stores the session user id in the system keyring.
func (KeyringSessionStore) Save(userID string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  sessionKey,
		Data: []byte(userID),
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load retrieves the persisted session user id. An empty string means no
// session is stored.
func (KeyringSessionStore) Load() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(sessionKey)
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return "", nil
		}
		return "", fmt.Errorf("loading session: %w", err)
	}
	return string(item.Data), nil
}

// Clear removes the persisted session.
func (KeyringSessionStore) Clear() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(sessionKey); err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps the session in memory, for tests.
type MemorySessionStore struct {
	userID string
}

func (m *MemorySessionStore) Save(userID string) error { m.userID = userID; return nil }
func (m *MemorySessionStore) Load() (string, error)    { return m.userID, nil }
func (m *MemorySessionStore) Clear() error             { m.userID = ""; return nil }
