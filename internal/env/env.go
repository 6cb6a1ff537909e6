// Package env provides the Env service: values from a .env file layered
// under the process environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultFile is the dotenv file read from the app root.
const DefaultFile = ".env"

// PathVariable, when set, overrides the dotenv file location.
const PathVariable = "ENV_PATH"

// Env resolves configuration values. Process environment variables always
// win over values read from the file.
type Env struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// New returns an Env backed only by the process environment.
func New() *Env {
	return &Env{values: make(map[string]string)}
}

// Load reads the dotenv file at root/file, or at $ENV_PATH when set. A
// relative ENV_PATH is resolved against root. A missing file is not an error.
func Load(root, file string) (*Env, error) {
	if file == "" {
		file = DefaultFile
	}
	if p := os.Getenv(PathVariable); p != "" {
		file = p
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, file)
	}

	e := New()
	e.path = file

	values, err := godotenv.Read(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return e, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", file, err)
	}
	e.values = values
	return e, nil
}

// Path returns the dotenv file that was consulted.
func (e *Env) Path() string {
	return e.path
}

// Get returns the value for key, or def (first element) when unset.
func (e *Env) Get(key string, def ...string) string {
	if v, ok := e.Lookup(key); ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// Lookup reports the value for key and whether it was set anywhere.
func (e *Env) Lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[key]
	return v, ok
}

// GetOrFail returns the value for key or an error when it is unset.
func (e *Env) GetOrFail(key string) (string, error) {
	v, ok := e.Lookup(key)
	if !ok {
		return "", fmt.Errorf("make sure to define environment variable %s", key)
	}
	return v, nil
}

// Set updates the process environment.
func (e *Env) Set(key, value string) error {
	return os.Setenv(key, value)
}

// Keys returns the keys read from the dotenv file, sorted.
func (e *Env) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
