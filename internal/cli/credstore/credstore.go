// Package credstore holds the backends for the persisted admin credential
// record: the OS keyring, a private JSON file, and process memory.
package credstore

import (
	"fmt"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// Backend names accepted by New
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendMemory  = "memory"
)

// New returns the store for backend. filePath is only used by the file
// backend; an empty path selects DefaultFilePath.
func New(backend, namespace, filePath string) (session.Store, error) {
	switch backend {
	case BackendKeyring, "":
		return NewKeyring(namespace), nil
	case BackendFile:
		if filePath == "" {
			var err error
			filePath, err = DefaultFilePath()
			if err != nil {
				return nil, err
			}
		}
		return NewFile(filePath, namespace), nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown credential store %q, must be one of: keyring, file, memory", backend)
	}
}
