// Package errs defines the error taxonomy shared by every stage of the
// Avon pipeline: lexer, parser, evaluator, and deployer.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error without encoding its message, mirroring the
// phase-tagged sentinel errors the rest of the pipeline wraps with %w.
type Kind string

const (
	KindLex        Kind = "lex"
	KindParse      Kind = "parse"
	KindName       Kind = "name"
	KindType       Kind = "type"
	KindArithmetic Kind = "arithmetic"
	KindDomain     Kind = "domain"
	KindIO         Kind = "io"
	KindNetwork    Kind = "network"
	KindUser       Kind = "user"
	KindInternal   Kind = "internal"
)

// Span identifies a location in source text for diagnostics.
type Span struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset into the source
	Length int // length in bytes, may be 0
}

// Sentinel errors identified by errors.Is across the pipeline. Each carries
// no span by itself; call New to attach one along with a message.
var (
	ErrUnterminatedString   = errors.New("unterminated string")
	ErrUnterminatedTemplate = errors.New("unterminated template")
	ErrUnterminatedPath     = errors.New("unterminated path")
	ErrBadEscape            = errors.New("bad escape sequence")
	ErrBadNumber            = errors.New("bad number literal")

	ErrExpectedToken    = errors.New("expected token")
	ErrUnmatchedBracket = errors.New("unmatched bracket")
	ErrMissingIn        = errors.New("missing 'in'")

	ErrUnknownIdentifier  = errors.New("unknown identifier")
	ErrDuplicateBinding   = errors.New("duplicate binding")
	ErrUnderscoreAsValue  = errors.New("'_' cannot be used as a value")
	ErrMissingArgument    = errors.New("missing argument")

	ErrTypeMismatch  = errors.New("type mismatch")
	ErrNotAFunction  = errors.New("value is not a function")
	ErrNotComparable = errors.New("values are not comparable")

	ErrDivByZero = errors.New("division by zero")
	ErrModByZero = errors.New("modulo by zero")

	ErrMissingKey   = errors.New("missing dictionary key")
	ErrEmptySample  = errors.New("sample from empty collection")
	ErrBadStep      = errors.New("range step must not be zero")

	ErrFileNotFound     = errors.New("file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotUTF8          = errors.New("not valid UTF-8")
	ErrPathEscapesRoot  = errors.New("deploy path escapes root")
	ErrBackupFailed     = errors.New("deploy backup failed")
	ErrPreflightFailed  = errors.New("deploy pre-flight check failed")
	ErrHostQueryFailed  = errors.New("host introspection failed")

	ErrAssertionFailed = errors.New("assertion failed")
	ErrUserError       = errors.New("user error")
)

// Error is the common error value threaded through lex/parse/eval. It wraps
// a sentinel Kind-identifying error and attaches a source Span plus an
// optional call chain built up as the error unwinds through named
// functions and builtins (e.g. "map: add_one: +: ...").
type Error struct {
	Kind  Kind
	Span  Span
	Err   error
	Chain []string
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	for i := len(e.Chain) - 1; i >= 0; i-- {
		msg = fmt.Sprintf("%s: %s", e.Chain[i], msg)
	}
	if e.Span.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Span.Line, e.Span.Column, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error wrapping sentinel with a formatted message and span.
func New(kind Kind, span Span, sentinel error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Span: span,
		Err:  fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}

// Annotate prepends name to the error's call chain, producing the
// "map: add_one: +: ..." style chains required by the evaluator.
func Annotate(err error, name string) error {
	var e *Error
	if errors.As(err, &e) {
		e.Chain = append([]string{name}, e.Chain...)
		return e
	}
	return fmt.Errorf("%s: %w", name, err)
}
