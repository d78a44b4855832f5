// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

// Package errors defines the error taxonomy shared by the storage, chain
// and recovery layers of the ledger, plus small wrap/inspect helpers so
// callers never need to reach for a different error package.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the taxonomy buckets callers are
// expected to switch on instead of matching strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindAuthenticationFailure
	KindIntegrityViolation
	KindResourceConflict
	KindBackendFailure
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindAuthenticationFailure:
		return "AUTHENTICATION_FAILURE"
	case KindIntegrityViolation:
		return "INTEGRITY_VIOLATION"
	case KindResourceConflict:
		return "RESOURCE_CONFLICT"
	case KindBackendFailure:
		return "BACKEND_FAILURE"
	case KindUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// LedgerError pairs a message with a Kind so callers can branch on
// classification after the error has been wrapped any number of times.
type LedgerError struct {
	kind Kind
	msg  string
	err  error
}

func (e *LedgerError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *LedgerError) Unwrap() error { return e.err }

// Is matches two LedgerErrors by Kind, so errors.Is(err, ErrNotFound)
// holds for any error built with WithKind(KindNotFound, ...) without the
// sentinel having to sit in the wrap chain.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.kind == e.kind
}

// KindOf returns the classification of err, or KindUnknown if err does not
// carry one (including err == nil).
func KindOf(err error) Kind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.kind
	}
	return KindUnknown
}

func newKind(kind Kind, msg string) *LedgerError {
	return &LedgerError{kind: kind, msg: msg}
}

// =====================
// Taxonomy sentinels. Each compares equal, under errors.Is, to every
// error carrying its Kind (see LedgerError.Is), so callers branch with
// errors.Is(err, ErrNotFound) rather than string matching.
// =====================

var (
	// ErrInvalidArgument: null/empty/negative inputs, offset out of range,
	// maxResults outside [1, 10_000], batch size over the cap, malformed
	// version strings.
	ErrInvalidArgument = newKind(KindInvalidArgument, "invalid argument")

	// ErrNotFound is returned by operations that cannot express "missing"
	// any other way; point lookups (byNumber, byHash) prefer a nil/zero
	// return over this error.
	ErrNotFound = newKind(KindNotFound, "not found")

	// ErrAuthenticationFailure is the AES-GCM tag-mismatch case. Callers
	// must not let this leak out of ByNumberWithPassword as an error;
	// it is translated to a (nil, nil) result there.
	ErrAuthenticationFailure = newKind(KindAuthenticationFailure, "authentication failure")

	// ErrIntegrityViolation: hash mismatch, signature invalid, chain
	// discontinuity.
	ErrIntegrityViolation = newKind(KindIntegrityViolation, "integrity violation")

	// ErrResourceConflict: duplicate blockNumber attempted. Indicates a
	// transaction-isolation bug in the caller, never swallowed.
	ErrResourceConflict = newKind(KindResourceConflict, "resource conflict")

	// ErrBackendFailure: transport/connection/timeout, surfaced after the
	// transaction has been rolled back.
	ErrBackendFailure = newKind(KindBackendFailure, "backend failure")

	// ErrUnsupported: unknown backend dialect for DDL generation.
	ErrUnsupported = newKind(KindUnsupported, "unsupported")
)

// =====================
// Helper functions
// =====================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// WithKind produces a new error of the given kind, wrapping err so
// errors.Is/As chains through to it.
func WithKind(kind Kind, err error, message string) error {
	return &LedgerError{kind: kind, msg: message, err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

// Errorf formats according to a format specifier and returns the string as
// a value that satisfies error.
func Errorf(format string, a ...interface{}) error {
	return fmt.Errorf(format, a...)
}
