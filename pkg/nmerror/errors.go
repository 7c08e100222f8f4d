// Package nmerror defines the typed error kinds the engine returns
// (spec §7 "Error handling design"), grounded on the teacher's typed
// error pattern in pkg/allocator/errors.go (a *SubnetExhaustedError
// implementing the error interface so callers can type-switch).
package nmerror

import "fmt"

// Kind identifies the category of a Error.
type Kind string

const (
	// KindInvalidArgument is a caller error, caught during validation.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindPluginFailure is a backend or OVSDB I/O error.
	KindPluginFailure Kind = "PluginFailure"
	// KindBug is an invariant violation inside the engine.
	KindBug Kind = "Bug"
	// KindVerificationError is a post-apply divergence from desired state.
	KindVerificationError Kind = "VerificationError"
	// KindNotImplemented marks a feature not yet implemented.
	KindNotImplemented Kind = "NotImplementedError"
	// KindNotSupported marks a feature the backend cannot support.
	KindNotSupported Kind = "NotSupportedError"
	// KindKernelIntegerRounded names a ±1 kernel rounding divergence.
	// Verification tolerates such a divergence on the multicast timer
	// fields without raising any error, so no code path returns it.
	KindKernelIntegerRounded Kind = "KernelIntegerRoundedError"
	// KindDependencyError marks a missing kernel feature.
	KindDependencyError Kind = "DependencyError"
	// KindPolicyError is a policy-language parse/evaluation error; it
	// carries Line and Position for error reporting.
	KindPolicyError Kind = "PolicyError"
	// KindSrIovVfNotFound is retryable during verification: VF
	// enumeration is asynchronous in the kernel.
	KindSrIovVfNotFound Kind = "SrIovVfNotFound"
	// KindSrIovOperatorOverlap marks conflicting SR-IOV operators.
	KindSrIovOperatorOverlap Kind = "SrIovOperatorOverlap"
)

// Exit codes for embedding CLIs (spec §6). The engine itself never
// calls os.Exit; a CLI front-end maps a returned Error to one of these.
const (
	ExitOK      = 0
	ExitDataErr = 65 // EX_DATAERR
)

// Error is the engine's typed error. It wraps an underlying cause and
// tags it with a Kind so callers can branch on category (e.g. the
// apply pipeline's verify loop retries on any error kind, but tags a
// missing SR-IOV VF specifically as KindSrIovVfNotFound so "the kernel
// is still enumerating" is distinguishable from a genuine mismatch).
type Error struct {
	Kind Kind
	Msg  string
	// Line and Position locate a PolicyError in its source document.
	Line     int
	Position int
	cause    error
}

func (e *Error) Error() string {
	if e.Kind == KindPolicyError && (e.Line != 0 || e.Position != 0) {
		return fmt.Sprintf("%s: %s (line %d, position %d)", e.Kind, e.Msg, e.Line, e.Position)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target has the same Kind, so callers can use
// errors.Is(err, nmerror.New(nmerror.KindVerificationError, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New constructs an Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around a cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: cause}
}

// Policy constructs a KindPolicyError carrying source position.
func Policy(line, position int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPolicyError, Msg: fmt.Sprintf(format, args...), Line: line, Position: position}
}

// InvalidArgument is a convenience constructor for the most common kind.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, format, args...)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and
// ("", false) otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}
