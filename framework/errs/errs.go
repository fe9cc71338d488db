// Package errs provides coded, structured errors shared by the bootstrap
// packages.
//
// Every failure that can abort a bootstrap carries a Code. Callers match
// codes with errors.Is against the package sentinels or with CodeOf:
//
//	if errors.Is(err, errs.ErrDuplicateActiveContainer) { ... }
//	switch errs.CodeOf(err) { case errs.CodeInstantiation: ... }
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a bootstrap failure.
type Code string

const (
	CodeDuplicateActiveContainer  Code = "DUPLICATE_ACTIVE_CONTAINER"
	CodeIncompatibleContainerType Code = "INCOMPATIBLE_CONTAINER_TYPE"
	CodeInstantiation             Code = "INSTANTIATION"
	CodeInitializerResolution     Code = "INITIALIZER_RESOLUTION"
	CodeInitializerTypeMismatch   Code = "INITIALIZER_TYPE_MISMATCH"
	CodeConfigLoad                Code = "CONFIG_LOAD"
	CodeParsing                   Code = "PARSING"
	CodeUnresolvablePlaceholder   Code = "UNRESOLVABLE_PLACEHOLDER"
	CodeIllegalState              Code = "ILLEGAL_STATE"
	CodeUnknown                   Code = "UNKNOWN"
)

// Sentinels for errors.Is. Any *E with the same Code matches.
var (
	ErrDuplicateActiveContainer  = &E{Code: CodeDuplicateActiveContainer}
	ErrIncompatibleContainerType = &E{Code: CodeIncompatibleContainerType}
	ErrInstantiation             = &E{Code: CodeInstantiation}
	ErrInitializerResolution     = &E{Code: CodeInitializerResolution}
	ErrInitializerTypeMismatch   = &E{Code: CodeInitializerTypeMismatch}
	ErrConfigLoad                = &E{Code: CodeConfigLoad}
	ErrParsing                   = &E{Code: CodeParsing}
	ErrUnresolvablePlaceholder   = &E{Code: CodeUnresolvablePlaceholder}
	ErrIllegalState              = &E{Code: CodeIllegalState}
)

// E is a structured error with a code, the failing operation and an
// optional cause.
type E struct {
	Code Code   // classification
	Op   string // operation that failed, e.g. "bootstrap.create"
	Msg  string // human-readable message
	Err  error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *E) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E with the same code. Sentinels carry
// only a code, so errors.Is(err, errs.ErrConfigLoad) matches any config
// load failure regardless of message.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Msg == "" && t.Op == "" && t.Err == nil
}

// New creates an error with code, operation and formatted message.
func New(code Code, op, format string, args ...any) error {
	return &E{Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to err. It returns nil when err is nil.
func Wrap(code Code, op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &E{Code: code, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

var sentinels = []*E{
	ErrDuplicateActiveContainer,
	ErrIncompatibleContainerType,
	ErrInstantiation,
	ErrInitializerResolution,
	ErrInitializerTypeMismatch,
	ErrConfigLoad,
	ErrParsing,
	ErrUnresolvablePlaceholder,
	ErrIllegalState,
}

// CodeOf extracts the code of the outermost *E in the chain. Errors of
// other types that match a sentinel through their own Is method report
// that sentinel's code. Anything else is CodeUnknown.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) {
		return e.Code
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Code
		}
	}
	return CodeUnknown
}
