package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/skybi/compliance-console/internal/session"
	"gopkg.in/yaml.v3"
)

// Driver represents the session storage driver persisting into a YAML file.
// The file holds credentials and is therefore written with owner-only permissions.
type Driver struct {
	mtx  sync.Mutex
	path string
}

var _ session.Storage = (*Driver)(nil)

// New creates a new file session storage driver using the given path.
// If path is empty, DefaultPath is used.
func New(path string) (*Driver, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	return &Driver{path: path}, nil
}

// DefaultPath returns the default session file location inside the user's configuration directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "compliance-console", "session.yaml"), nil
}

// Path returns the location of the session file
func (driver *Driver) Path() string {
	return driver.path
}

// Get retrieves the value of a key
func (driver *Driver) Get(_ context.Context, key string) (string, bool, error) {
	driver.mtx.Lock()
	defer driver.mtx.Unlock()

	entries, err := driver.read()
	if err != nil {
		return "", false, err
	}
	val, ok := entries[key]
	return val, ok, nil
}

// Put sets the value of a key
func (driver *Driver) Put(_ context.Context, key, value string) error {
	driver.mtx.Lock()
	defer driver.mtx.Unlock()

	entries, err := driver.read()
	if err != nil {
		return err
	}
	entries[key] = value
	return driver.write(entries)
}

// Delete removes a key
func (driver *Driver) Delete(_ context.Context, key string) error {
	driver.mtx.Lock()
	defer driver.mtx.Unlock()

	entries, err := driver.read()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return driver.write(entries)
}

func (driver *Driver) read() (map[string]string, error) {
	data, err := os.ReadFile(driver.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	entries := map[string]string{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

func (driver *Driver) write(entries map[string]string) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(driver.path), 0o700); err != nil {
		return err
	}

	// Write to a temporary file first so a crash never leaves a truncated session file behind
	tmp, err := os.CreateTemp(filepath.Dir(driver.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), driver.path)
}
