// Package errs classifies errors under sentinel values while keeping
// the underlying cause in the unwrap chain.
package errs

import "github.com/rotisserie/eris"

// classified pairs a cause with the sentinel class it belongs to.
// Is matches the class and Unwrap exposes the cause, so errors.Is
// checks against either keep working.
type classified struct {
	class error
	err   error
}

func (e *classified) Error() string {
	return e.class.Error() + ": " + e.err.Error()
}

func (e *classified) Unwrap() error { return e.err }

func (e *classified) Is(target error) bool { return target == e.class }

// Wrapf returns an error annotated with the formatted message that
// matches class under errors.Is and still unwraps to cause. The cause
// must be non-nil.
func Wrapf(class, cause error, format string, args ...any) error {
	return eris.Wrapf(&classified{class: class, err: cause}, format, args...)
}
