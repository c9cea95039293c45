package model

import (
	"errors"
	"fmt"
)

// Error kinds reported by the record store. Match them with errors.Is.
var (
	ErrIO              = errors.New("io error")
	ErrMalformedRecord = errors.New("malformed record")
	ErrCorruptStore    = errors.New("corrupt store")
	ErrDuplicate       = errors.New("duplicate roll number")
	ErrNotFound        = errors.New("student not found")
	ErrOutOfRange      = errors.New("value out of range")
)

// Error carries the details of a failed store or codec operation.
// Kind is always one of the Err* values above.
type Error struct {
	Kind   error
	Roll   string
	Field  string
	Line   int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.Line > 0:
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	case e.Field != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	case e.Roll != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Roll)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IOError wraps a filesystem failure; op names the step that failed.
func IOError(op string, err error) error {
	return &Error{Kind: ErrIO, Detail: op, Err: err}
}

func DuplicateError(roll string) error {
	return &Error{Kind: ErrDuplicate, Roll: roll}
}

func NotFoundError(roll string) error {
	return &Error{Kind: ErrNotFound, Roll: roll}
}

func OutOfRangeError(field, detail string) error {
	return &Error{Kind: ErrOutOfRange, Field: field, Detail: detail}
}

func MalformedError(line int, detail string) error {
	return &Error{Kind: ErrMalformedRecord, Line: line, Detail: detail}
}

func CorruptError(line int, roll string) error {
	return &Error{Kind: ErrCorruptStore, Line: line, Roll: roll, Detail: "duplicate roll number " + roll}
}
