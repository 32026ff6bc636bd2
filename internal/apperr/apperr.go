// Package apperr defines the error taxonomy shared by the analysis core and
// its boundaries (HTTP API and CLI).
//
// Three kinds exist:
//   - Input: malformed or out-of-range caller data (missing columns, bad numbers,
//     unknown risk levels, trial counts outside bounds)
//   - Solver: the optimization backend could not produce a usable assignment
//   - Computation: a statistic could not be produced from otherwise valid data
//
// Boundaries use KindOf to pick a status code or exit code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindSolver
	KindComputation
)

// String returns the lowercase kind name used in API payloads.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindSolver:
		return "solver"
	case KindComputation:
		return "computation"
	default:
		return "unknown"
	}
}

// Error is a classified error. Op names the failing operation, Field the
// offending input location when known (e.g. "row 4: Duration_Days").
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Input returns an input error for op.
func Input(op, field string, format string, args ...any) *Error {
	return &Error{Kind: KindInput, Op: op, Field: field, Err: fmt.Errorf(format, args...)}
}

// Solver wraps err as a solver error.
func Solver(op string, err error) *Error {
	return &Error{Kind: KindSolver, Op: op, Err: err}
}

// Computation wraps err as a computation error.
func Computation(op string, err error) *Error {
	return &Error{Kind: KindComputation, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	return KindOf(err) == KindInput
}

// IsSolver reports whether err is a solver error.
func IsSolver(err error) bool {
	return KindOf(err) == KindSolver
}
