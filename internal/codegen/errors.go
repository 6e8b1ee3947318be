package codegen

import (
	"errors"
	"fmt"
)

// EncodeError represents an error detected during schema serialization.
//
// Encode errors are data-integrity violations in the input IR:
//   - Unsupported literal: a value the literal encoder cannot render
//   - Invalid default function: a call outside the fixed allow-list
//   - Unknown attribute kind: a variant the attribute encoder does not
//     recognize
//
// There is no partial-success mode: an EncodeError aborts the whole
// in-progress module before any text is handed to callers.
type EncodeError struct {
	// Code identifies the error category.
	Code EncodeErrorCode

	// Message is a human-readable description.
	Message string
}

// EncodeErrorCode categorizes encode errors.
type EncodeErrorCode string

const (
	// ErrCodeUnsupportedLiteral indicates a default or literal value of a
	// type the value encoder cannot render.
	ErrCodeUnsupportedLiteral EncodeErrorCode = "UNSUPPORTED_LITERAL"

	// ErrCodeInvalidDefaultFunction indicates a default-value call whose
	// name is outside the fixed allow-list.
	ErrCodeInvalidDefaultFunction EncodeErrorCode = "INVALID_DEFAULT_FUNCTION"

	// ErrCodeUnknownAttributeKind indicates an attribute variant or
	// primitive kind the attribute encoder does not recognize.
	ErrCodeUnknownAttributeKind EncodeErrorCode = "UNKNOWN_ATTRIBUTE_KIND"
)

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupportedLiteralError returns true for unsupported-literal errors.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedLiteralError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee) && ee.Code == ErrCodeUnsupportedLiteral
}

// IsInvalidDefaultFunctionError returns true for invalid default
// function errors. Uses errors.As to handle wrapped errors.
func IsInvalidDefaultFunctionError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee) && ee.Code == ErrCodeInvalidDefaultFunction
}

// IsUnknownAttributeKindError returns true for unknown-kind errors.
// Uses errors.As to handle wrapped errors.
func IsUnknownAttributeKindError(err error) bool {
	var ee *EncodeError
	return errors.As(err, &ee) && ee.Code == ErrCodeUnknownAttributeKind
}

func unsupportedLiteral(format string, args ...any) *EncodeError {
	return &EncodeError{Code: ErrCodeUnsupportedLiteral, Message: fmt.Sprintf(format, args...)}
}

func invalidDefaultFunction(format string, args ...any) *EncodeError {
	return &EncodeError{Code: ErrCodeInvalidDefaultFunction, Message: fmt.Sprintf(format, args...)}
}

func unknownAttributeKind(format string, args ...any) *EncodeError {
	return &EncodeError{Code: ErrCodeUnknownAttributeKind, Message: fmt.Sprintf(format, args...)}
}
