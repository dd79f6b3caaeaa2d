// Package diag defines the typed errors every resolution surface returns.
//
// The engine never panics on bad symbol data: decode problems degrade to
// best-effort nodes and are logged, while resolution and value errors are
// returned to the immediate caller as an *Err carrying one of the Code
// classes. Callers branch on the class with errors.Is and a code sentinel,
// e.g. errors.Is(err, diag.CodeErr(diag.OptimizedOut)).
package diag

import (
	"errors"
	"fmt"
)

// Err is a resolution error with a stable class and a display message.
type Err struct {
	Code Code
	Msg  string
	// Cause is the underlying collaborator error, if any (for ReadFailed).
	Cause error
}

func (e *Err) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Msg
}

func (e *Err) Unwrap() error { return e.Cause }

// Is matches any *Err with the same code, so a bare CodeErr works as an
// errors.Is target.
func (e *Err) Is(target error) bool {
	var other *Err
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// CodeErr returns a bare sentinel for use as an errors.Is target.
func CodeErr(c Code) *Err { return &Err{Code: c} }

// New builds an error of the given class.
func New(c Code, format string, args ...any) *Err {
	return &Err{Code: c, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a class and message to a collaborator error.
func Wrap(c Code, cause error, format string, args ...any) *Err {
	return &Err{Code: c, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// NewNotFound reports that an identifier resolved to zero candidates.
func NewNotFound(display string) *Err {
	return New(NotFound, "no symbol %q in this context", display)
}

// NewOptimizedOut reports a variable with no location program at all.
func NewOptimizedOut(display string) *Err {
	return New(OptimizedOut, "%s has been optimized out", display)
}

// NewUnavailable reports a variable whose locations don't cover the current
// address. Distinct from optimized-out: the data exists elsewhere.
func NewUnavailable(display string) *Err {
	return New(Unavailable, "%s is not available at this address", display)
}

// CodeOf extracts the class from an error chain, or UnknownCode.
func CodeOf(err error) Code {
	var e *Err
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownCode
}
