package loader

import (
	"errors"
	"fmt"
)

// Kind classifies a load failure.
type Kind int

const (
	// KindNotFound means the module itself does not exist.
	KindNotFound Kind = iota + 1

	// KindLoad means the module exists but failed to evaluate.
	KindLoad
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindLoad:
		return "load error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrNotFound = errors.New("module not found")
	ErrLoad     = errors.New("module failed to load")
)

// Error is returned by every Loader.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// NotFound reports a missing module at path.
func NotFound(path string) *Error {
	return &Error{Kind: KindNotFound, Path: path}
}

// Failed reports a module at path that failed with err.
func Failed(path string, err error) *Error {
	return &Error{Kind: KindLoad, Path: path, Err: err}
}

func (e *Error) Error() string {
	if e.Kind == KindNotFound {
		return fmt.Sprintf("cannot find module %q", e.Path)
	}
	return fmt.Sprintf("load module %q: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrLoad:
		return e.Kind == KindLoad
	}
	return false
}

// IsNotFound reports whether the outermost *Error in err's chain is a
// KindNotFound. A load error caused by a missing dependency is not NotFound.
func IsNotFound(err error) bool {
	var le *Error
	if !errors.As(err, &le) {
		return false
	}
	return le.Kind == KindNotFound
}
