// Package repository holds the SQL access layer and the error kinds shared
// by every layer above it.  Handlers inspect errors with errors.Is against
// the kind sentinels below and translate them into HTTP status codes.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced entity is absent.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation would violate a state
// invariant: a double booking, a transition from the wrong state or a
// duplicate record.  Handlers translate it into HTTP 400.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrValidation is returned for malformed input.  Handlers translate it
// into HTTP 400.
var ErrValidation = errors.New("validation failed")

// Error pairs a kind with the message shown to the client.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(msg string) error   { return &Error{Kind: ErrNotFound, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: ErrConflict, Msg: msg} }
func Forbidden(msg string) error  { return &Error{Kind: ErrForbidden, Msg: msg} }
func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// Message returns the client-facing message of a domain error, or "" for
// anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}

// notFoundIfNoRows maps sql.ErrNoRows to a NotFound error with msg and
// passes every other error through.
func notFoundIfNoRows(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NotFound(msg)
	}
	return err
}

// isDuplicateKey reports whether err is a unique or primary key violation
// in either supported dialect.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// isForeignKeyViolation reports whether err is a foreign key failure in
// either supported dialect.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1452
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
