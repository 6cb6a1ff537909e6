// Package helpers exposes well-known application paths to providers and
// application code.
package helpers

import (
	"errors"
	"path/filepath"
	"sort"
)

// ErrConfigFileAccess is returned when a caller asks for a file inside the
// config directory. Configuration must be read through the config service.
var ErrConfigFileAccess = errors.New("config files must be read through the config service, not from the config directory")

// Helpers resolves paths relative to the application root.
type Helpers struct {
	root        string
	directories map[string]string
	isCommand   bool
}

// New creates path helpers for root. directories maps roles such as
// "httpControllers" to paths relative to the primary autoload namespace.
func New(root string, directories map[string]string, isCommand bool) *Helpers {
	dirs := make(map[string]string, len(directories))
	for k, v := range directories {
		dirs[k] = v
	}
	return &Helpers{root: root, directories: dirs, isCommand: isCommand}
}

// AppRoot joins parts onto the application root.
func (h *Helpers) AppRoot(parts ...string) string {
	return filepath.Join(append([]string{h.root}, parts...)...)
}

// PublicPath returns root/public joined with parts.
func (h *Helpers) PublicPath(parts ...string) string {
	return h.AppRoot(append([]string{"public"}, parts...)...)
}

// ConfigPath returns root/config. Asking for a file inside it fails.
func (h *Helpers) ConfigPath(parts ...string) (string, error) {
	if len(parts) > 0 {
		return "", ErrConfigFileAccess
	}
	return h.AppRoot("config"), nil
}

// ResourcesPath returns root/resources joined with parts.
func (h *Helpers) ResourcesPath(parts ...string) string {
	return h.AppRoot(append([]string{"resources"}, parts...)...)
}

// ViewsPath returns root/resources/views joined with parts.
func (h *Helpers) ViewsPath(parts ...string) string {
	return h.ResourcesPath(append([]string{"views"}, parts...)...)
}

// DatabasePath returns root/database joined with parts.
func (h *Helpers) DatabasePath(parts ...string) string {
	return h.AppRoot(append([]string{"database"}, parts...)...)
}

// MigrationsPath returns root/database/migrations joined with parts.
func (h *Helpers) MigrationsPath(parts ...string) string {
	return h.DatabasePath(append([]string{"migrations"}, parts...)...)
}

// SeedsPath returns root/database/seeds joined with parts.
func (h *Helpers) SeedsPath(parts ...string) string {
	return h.DatabasePath(append([]string{"seeds"}, parts...)...)
}

// TmpPath returns root/tmp joined with parts.
func (h *Helpers) TmpPath(parts ...string) string {
	return h.AppRoot(append([]string{"tmp"}, parts...)...)
}

// IsAceCommand reports whether the process was started to run a command
// rather than serve HTTP.
func (h *Helpers) IsAceCommand() bool {
	return h.isCommand
}

// Directories returns a copy of the directory role table.
func (h *Helpers) Directories() map[string]string {
	out := make(map[string]string, len(h.directories))
	for k, v := range h.directories {
		out[k] = v
	}
	return out
}

// Directory returns the path registered for role.
func (h *Helpers) Directory(role string) (string, bool) {
	d, ok := h.directories[role]
	return d, ok
}

// Roles returns the registered directory roles, sorted.
func (h *Helpers) Roles() []string {
	roles := make([]string, 0, len(h.directories))
	for k := range h.directories {
		roles = append(roles, k)
	}
	sort.Strings(roles)
	return roles
}
