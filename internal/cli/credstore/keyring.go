package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "bookadmin-cli"
)

// Keyring persists credentials in the OS keychain/credential manager
type Keyring struct {
	namespace string
}

// NewKeyring returns a keyring store whose entries are scoped to namespace
// (usually the admin API host), so sessions against different APIs coexist.
func NewKeyring(namespace string) *Keyring {
	return &Keyring{namespace: namespace}
}

// Get retrieves a value from the OS keychain/credential manager
func (k *Keyring) Get(key string) (string, bool, error) {
	value, err := keyring.Get(service, scopedKey(key, k.namespace))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

// Set persists a value securely in the OS keychain/credential manager
func (k *Keyring) Set(key, value string) error {
	if err := keyring.Set(service, scopedKey(key, k.namespace), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a value from the OS keychain/credential manager
func (k *Keyring) Delete(key string) error {
	if err := keyring.Delete(service, scopedKey(key, k.namespace)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func scopedKey(key, namespace string) string {
	if namespace == "" {
		return key
	}
	return fmt.Sprintf("%s-%s", key, namespace)
}
