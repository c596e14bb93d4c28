package expand

import (
	"errors"
	"fmt"

	"github.com/roach88/beacon/internal/macro"
)

// Error describes a condition met while expanding a template.
//
// Expansion never fails because of one: each condition has a defined
// fallback and is logged as a warning or reported by Check. Error exists so
// those reports carry a stable code.
type Error struct {
	// Code identifies the condition.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context, such as the variable or macro
	// name.
	Details map[string]string
}

// ErrorCode categorizes expansion conditions.
type ErrorCode string

const (
	// ErrCodeUnresolvedVariable marks a variable with no binding. It
	// expands to "".
	ErrCodeUnresolvedVariable ErrorCode = "UNRESOLVED_VARIABLE"

	// ErrCodeUnknownMacro marks a call to a name that is not registered.
	// The call text is kept verbatim.
	ErrCodeUnknownMacro ErrorCode = "UNKNOWN_MACRO"

	// ErrCodeDepthExceeded marks a variable left unexpanded because the
	// recursion budget ran out.
	ErrCodeDepthExceeded ErrorCode = "EXPANSION_DEPTH_EXCEEDED"

	// ErrCodeInvalidMacroArgument marks an argument a macro could not use.
	// The macro substitutes its default and completes.
	ErrCodeInvalidMacroArgument ErrorCode = macro.CodeInvalidArgument

	// ErrCodeMalformedTemplate marks an unterminated reference, kept as
	// literal text.
	ErrCodeMalformedTemplate ErrorCode = "MALFORMED_TEMPLATE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDepthExceeded returns true if err is an Error with ErrCodeDepthExceeded.
// Uses errors.As to handle wrapped errors.
func IsDepthExceeded(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeDepthExceeded
	}
	return false
}

// IsUnknownMacro returns true if err is an Error with ErrCodeUnknownMacro.
func IsUnknownMacro(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeUnknownMacro
	}
	return false
}

func newDepthError(key string, maxDepth int) *Error {
	return &Error{
		Code:    ErrCodeDepthExceeded,
		Message: "maximum depth reached while expanding variables",
		Details: map[string]string{
			"variable":  key,
			"max_depth": fmt.Sprintf("%d", maxDepth),
		},
	}
}
