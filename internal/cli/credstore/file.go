package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

const defaultCredentialFile = "~/.config/bookadmin/credentials.json"

// errCorruptFile marks a credential file that exists but does not parse
var errCorruptFile = errors.New("credential file is corrupt")

// DefaultFilePath returns the credential file used when none is configured
func DefaultFilePath() (string, error) {
	path, err := homedir.Expand(defaultCredentialFile)
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return path, nil
}

// File persists credentials in a JSON file readable only by the current user.
// It exists for machines without a usable keyring (CI runners, containers).
type File struct {
	mu        sync.Mutex
	path      string
	namespace string
}

// NewFile returns a file store at path, scoped to namespace
func NewFile(path, namespace string) *File {
	return &File{path: path, namespace: namespace}
}

// Path returns the location of the credential file
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if errors.Is(err, errCorruptFile) {
		return "", false, &session.StorageCorruptionError{Key: key, Err: err}
	}
	if err != nil {
		return "", false, err
	}
	value, ok := entries[scopedKey(key, f.namespace)]
	return value, ok, nil
}

// Set stores value under key. A corrupt file is replaced.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if errors.Is(err, errCorruptFile) {
		entries = make(map[string]string)
	} else if err != nil {
		return err
	}
	entries[scopedKey(key, f.namespace)] = value
	return f.write(entries)
}

// Delete removes key. A corrupt file is removed as a whole since none of its
// entries can be recovered.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if errors.Is(err, errCorruptFile) {
		return f.remove()
	}
	if err != nil {
		return err
	}
	scoped := scopedKey(key, f.namespace)
	if _, ok := entries[scoped]; !ok {
		return nil
	}
	delete(entries, scoped)

	if len(entries) == 0 {
		return f.remove()
	}
	return f.write(entries)
}

func (f *File) remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errCorruptFile, f.path, err)
	}
	return entries, nil
}

func (f *File) write(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}
