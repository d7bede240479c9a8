package exceptions

import (
	"errors"
	"fmt"
)

// ErrorKind represents the type of query translation error.
type ErrorKind int

const (
	ErrInvalidQueryInput ErrorKind = iota // malformed top-level input or JSON
	ErrInvalidSelect                      // mixed inclusion and exclusion in $select
	ErrInvalidProjection                  // $projection is not valid JSON
	ErrFilterSyntax                       // $filter grammar rejected the input
	ErrInvalidIdentifier                  // $objectId literal is not identifier-shaped
	ErrInvalidLiteral                     // typed literal could not be coerced
	ErrUnsafePipeline                     // aggregation pipeline uses a denied operator
)

func (e ErrorKind) String() string {
	switch e {
	case ErrInvalidQueryInput:
		return "InvalidQueryInput"
	case ErrInvalidSelect:
		return "InvalidSelect"
	case ErrInvalidProjection:
		return "InvalidProjection"
	case ErrFilterSyntax:
		return "FilterSyntax"
	case ErrInvalidIdentifier:
		return "InvalidIdentifier"
	case ErrInvalidLiteral:
		return "InvalidLiteral"
	case ErrUnsafePipeline:
		return "UnsafePipeline"
	default:
		return "Unknown"
	}
}

// QueryError represents a rich query translation error with context.
//
//nolint:govet // fieldalignment: readability preferred
type QueryError struct {
	Kind     ErrorKind
	Detail   string
	Path     string // location inside a document or pipeline, if any
	Position int    // byte offset inside a $filter expression, if any
	Hint     string
	cause    error
}

func NewQueryError(kind ErrorKind, detail string) *QueryError {
	return &QueryError{Kind: kind, Detail: detail}
}

func NewQueryErrorf(kind ErrorKind, format string, args ...any) *QueryError {
	return &QueryError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (at path %s)", msg, e.Path)
	}
	if e.Position > 0 {
		msg = fmt.Sprintf("%s (at position %d)", msg, e.Position)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s; %s", msg, e.Hint)
	}
	return msg
}

func (e *QueryError) Unwrap() error {
	return e.cause
}

func (e *QueryError) WithPath(path string) *QueryError {
	e.Path = path
	return e
}

func (e *QueryError) WithPosition(pos int) *QueryError {
	e.Position = pos
	return e
}

func (e *QueryError) WithHint(hint string) *QueryError {
	e.Hint = hint
	return e
}

// WithCause records the underlying error so errors.Is/As can reach it.
func (e *QueryError) WithCause(err error) *QueryError {
	e.cause = err
	return e
}

// IsKind reports whether err, or any error it wraps, is a QueryError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}
