// ABOUTME: Durable key-value storage backends for the session store
// ABOUTME: File storage in the XDG config dir and an in-process memory storage

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the durable medium behind a Store. Only the Store calls it.
type Storage interface {
	// Get returns the stored value and whether it was present
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes the key; removing a missing key is not an error
	Remove(key string) error
	Close() error
}

// FileStorage keeps one file per key inside a directory
type FileStorage struct {
	dir string
}

// NewFileStorage creates a file storage rooted at dir.
// The directory is created lazily on first write.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "flightdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "flightdesk")
}

// Dir returns the directory holding the stored files
func (f *FileStorage) Dir() string {
	return f.dir
}

// Path returns the file used for key
func (f *FileStorage) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes the value through a temp file and rename so a concurrent reader
// never sees a partially written record.
func (f *FileStorage) Set(key, value string) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}

	return os.Rename(tmpName, f.Path(key))
}

func (f *FileStorage) Remove(key string) error {
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStorage) Close() error {
	return nil
}

// MemoryStorage is a process-local storage, used by tests and --storage memory
type MemoryStorage struct {
	store sync.Map
}

// NewMemoryStorage creates an empty memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	val, ok := m.store.Load(key)
	if !ok {
		return "", false, nil
	}
	return val.(string), true, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.store.Store(key, value)
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.store.Delete(key)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
