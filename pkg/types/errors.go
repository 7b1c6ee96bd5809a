// Package types holds the error taxonomy shared by the calculator and the
// dice roller.
package types

import (
	"errors"
	"fmt"
)

// Kind classifies an evaluation failure.
type Kind string

// Error kinds reported by the evaluators and the command layer.
const (
	KindInvalidCharacter Kind = "InvalidCharacter"
	KindMismatchedBraces Kind = "MismatchedBraces"
	KindMissingValue     Kind = "MissingValue"
	KindMissingOperator  Kind = "MissingOperator"
	KindTooDeeplyNested  Kind = "TooDeeplyNested"
	KindDivideByZero     Kind = "DivideByZero"
	KindUnknownOperator  Kind = "UnknownOperator"
	KindTooManyDice      Kind = "TooManyDice"
	KindTooManySides     Kind = "TooManySides"
	KindInvalidSides     Kind = "InvalidSides"
	KindInvalidSyntax    Kind = "InvalidSyntax"
	KindInvalidArgument  Kind = "InvalidArgument"
)

// EvalError is a classified, recoverable evaluation failure.
type EvalError struct {
	Kind    Kind
	Message string
	Pos     int // byte offset into the input, -1 when not tied to a position
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s (at position %d)", e.Message, e.Pos)
	}
	return e.Message
}

// Is reports whether target is an *EvalError of the same kind, so the
// sentinel values below work with errors.Is.
func (e *EvalError) Is(target error) bool {
	t, ok := target.(*EvalError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidCharacter = &EvalError{Kind: KindInvalidCharacter, Message: "invalid character in expression", Pos: -1}
	ErrMismatchedBraces = &EvalError{Kind: KindMismatchedBraces, Message: "mismatched braces '( )' in expression", Pos: -1}
	ErrMissingValue     = &EvalError{Kind: KindMissingValue, Message: "missing expected value in expression", Pos: -1}
	ErrMissingOperator  = &EvalError{Kind: KindMissingOperator, Message: "missing expected operator in expression", Pos: -1}
	ErrTooDeeplyNested  = &EvalError{Kind: KindTooDeeplyNested, Message: "expression is too deeply nested", Pos: -1}
	ErrDivideByZero     = &EvalError{Kind: KindDivideByZero, Message: "cannot perform modulus or division by zero", Pos: -1}
	ErrUnknownOperator  = &EvalError{Kind: KindUnknownOperator, Message: "unknown mathematical operator", Pos: -1}
	ErrTooManyDice      = &EvalError{Kind: KindTooManyDice, Message: "too many dice", Pos: -1}
	ErrTooManySides     = &EvalError{Kind: KindTooManySides, Message: "too many sides", Pos: -1}
	ErrInvalidSides     = &EvalError{Kind: KindInvalidSides, Message: "dice must have at least one side", Pos: -1}
	ErrInvalidSyntax    = &EvalError{Kind: KindInvalidSyntax, Message: "invalid syntax", Pos: -1}
	ErrInvalidArgument  = &EvalError{Kind: KindInvalidArgument, Message: "invalid argument", Pos: -1}
)

// NewError creates an EvalError of the given kind at a position.
func NewError(kind Kind, pos int, msg string) *EvalError {
	return &EvalError{Kind: kind, Message: msg, Pos: pos}
}

// Errorf creates an EvalError of the given kind with no position.
func Errorf(kind Kind, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: -1}
}

// Common error constructors.

// NewInvalidCharacterError reports a character outside the accepted alphabet.
func NewInvalidCharacterError(ch byte, pos int) *EvalError {
	return NewError(KindInvalidCharacter, pos, fmt.Sprintf("invalid character %q in expression", ch))
}

// NewMismatchedBracesError reports unbalanced parentheses.
func NewMismatchedBracesError(pos int) *EvalError {
	return NewError(KindMismatchedBraces, pos, "mismatched braces '( )' in expression")
}

// NewMissingValueError reports a position where a value was expected.
func NewMissingValueError(pos int) *EvalError {
	return NewError(KindMissingValue, pos, "missing expected value in expression")
}

// NewMissingOperatorError reports a position where an operator was expected.
func NewMissingOperatorError(pos int) *EvalError {
	return NewError(KindMissingOperator, pos, "missing expected operator in expression")
}

// NewTooDeeplyNestedError reports a frame stack overflow.
func NewTooDeeplyNestedError(limit int) *EvalError {
	return Errorf(KindTooDeeplyNested, "expression is too deeply nested (max %d)", limit)
}

// NewDivideByZeroError reports a zero divisor.
func NewDivideByZeroError() *EvalError {
	return Errorf(KindDivideByZero, "cannot perform modulus or division by zero")
}

// NewUnknownOperatorError reports an operator missing from the table.
func NewUnknownOperatorError(op byte) *EvalError {
	return Errorf(KindUnknownOperator, "unknown mathematical operator %c", op)
}

// KindOf returns the kind of the first EvalError in err's chain, or "" when
// err is nil or unclassified.
func KindOf(err error) Kind {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
