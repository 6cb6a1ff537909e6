// Package ace is the command front-end: manifest commands are resolved from
// the container and mounted on a cobra root command.
package ace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// ErrNotCommand is returned when a reference does not resolve to a command.
var ErrNotCommand = errors.New("binding is not a command")

// Resolver looks up a binding by name.
type Resolver interface {
	Use(name string) (any, error)
}

// Kernel collects commands and dispatches argv to them.
type Kernel struct {
	resolver Resolver

	mu   sync.Mutex
	root *cobra.Command
	refs map[string]string
}

// New creates a kernel resolving command references through r.
func New(r Resolver) *Kernel {
	root := &cobra.Command{
		Use:           "ace",
		Short:         "Run application commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return &Kernel{
		resolver: r,
		root:     root,
		refs:     make(map[string]string),
	}
}

// AddCommand resolves ref and mounts the command. The binding may be a
// *cobra.Command or a func() *cobra.Command.
func (k *Kernel) AddCommand(ref string) error {
	v, err := k.resolver.Use(ref)
	if err != nil {
		return fmt.Errorf("add command %s: %w", ref, err)
	}

	var cmd *cobra.Command
	switch c := v.(type) {
	case *cobra.Command:
		cmd = c
	case func() *cobra.Command:
		cmd = c()
	default:
		return fmt.Errorf("add command %s: %w (got %T)", ref, ErrNotCommand, v)
	}
	if cmd == nil {
		return fmt.Errorf("add command %s: %w (nil)", ref, ErrNotCommand)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.root.AddCommand(cmd)
	k.refs[cmd.Name()] = ref
	return nil
}

// Commands returns the names of the mounted commands, sorted.
func (k *Kernel) Commands() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	names := make([]string, 0, len(k.refs))
	for n := range k.refs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Ref returns the reference a mounted command came from.
func (k *Kernel) Ref(name string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ref, ok := k.refs[name]
	return ref, ok
}

// SetOutput redirects command output.
func (k *Kernel) SetOutput(out, errOut io.Writer) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.root.SetOut(out)
	k.root.SetErr(errOut)
}

// Root returns the cobra root command.
func (k *Kernel) Root() *cobra.Command {
	return k.root
}

// Invoke runs args against the mounted commands, reporting version for
// --version.
func (k *Kernel) Invoke(ctx context.Context, version string, args []string) error {
	k.mu.Lock()
	k.root.Version = version
	k.root.SetArgs(args)
	k.mu.Unlock()

	return k.root.ExecuteContext(ctx)
}
