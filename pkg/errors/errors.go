// Package errors provides error handling for syncgen.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, wrapping with context and user-facing hints, and adds the error
// taxonomy shared by the generator and the runtime bridge.
//
// Usage:
//
//	// Wrap with context
//	if err := load(); err != nil {
//	    return errors.Wrap(err, "failed to load metadata")
//	}
//
//	// Check for a generation failure kind
//	if errors.Is(err, errors.ErrMissingDocumentation) {
//	    // undocumented public member
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	CombineErrors = crdb.CombineErrors
	Mark          = crdb.Mark
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Taxonomy sentinels. Typed errors below match them through errors.Is.
var (
	// ErrMissingDocumentation marks a public member with no documentation entry.
	ErrMissingDocumentation = New("missing documentation")

	// ErrUnprojectableType marks a type reference with no façade projection.
	ErrUnprojectableType = New("unprojectable type")

	// ErrDuplicateRegistration marks a second registry binding for one implementation type.
	ErrDuplicateRegistration = New("duplicate registration")

	// ErrBridgeFailure marks a failure raised on the background event loop.
	ErrBridgeFailure = New("bridge failure")

	// ErrInvalidMetadata marks a malformed generation input document.
	ErrInvalidMetadata = New("invalid metadata")
)

// MissingDocumentationError reports a member that the documentation source
// does not describe and that is not allow-listed.
type MissingDocumentationError struct {
	Class  string
	Member string
}

func (e *MissingDocumentationError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("missing documentation for class %s", e.Class)
	}
	return fmt.Sprintf("missing documentation for %s.%s", e.Class, e.Member)
}

func (e *MissingDocumentationError) Is(target error) bool {
	return target == ErrMissingDocumentation
}

// UnprojectableTypeError reports a type reference that cannot be mapped into
// the façade type system.
type UnprojectableTypeError struct {
	Class  string
	Member string
	Type   string
	Reason string
}

func (e *UnprojectableTypeError) Error() string {
	msg := "unprojectable type " + e.Type
	if e.Class != "" {
		msg += " in " + e.Class
		if e.Member != "" {
			msg += "." + e.Member
		}
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnprojectableTypeError) Is(target error) bool {
	return target == ErrUnprojectableType
}

// DuplicateRegistrationError reports a second façade binding for the same
// implementation type.
type DuplicateRegistrationError struct {
	Impl     string
	Existing string
	Facade   string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("implementation %s already bound to %s (attempted %s)", e.Impl, e.Existing, e.Facade)
}

func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}
