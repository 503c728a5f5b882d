// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"fmt"

	"github.com/gomlx/gotf/pkg/native"
	"github.com/pkg/errors"
)

// Code is the status code of an error reported by the native runtime.
type Code = native.Code

// Status codes, mirrored from the native runtime.
const (
	OK                 = native.OK
	Cancelled          = native.Cancelled
	Unknown            = native.Unknown
	InvalidArgument    = native.InvalidArgument
	DeadlineExceeded   = native.DeadlineExceeded
	NotFound           = native.NotFound
	AlreadyExists      = native.AlreadyExists
	PermissionDenied   = native.PermissionDenied
	ResourceExhausted  = native.ResourceExhausted
	FailedPrecondition = native.FailedPrecondition
	Aborted            = native.Aborted
	OutOfRange         = native.OutOfRange
	Unimplemented      = native.Unimplemented
	Internal           = native.Internal
	Unavailable        = native.Unavailable
	DataLoss           = native.DataLoss
	Unauthenticated    = native.Unauthenticated
)

// Error is an error reported by the native runtime through a status object.
type Error struct {
	Code Code

	// Message is the native runtime's own message, unmodified.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tensorflow error %s (%d): %s", e.Code, int32(e.Code), e.Message)
}

// Is reports whether target is an *Error with the same Code, and with the same Message
// if target's is not empty. It allows `errors.Is(err, &tf.Error{Code: tf.InvalidArgument})`.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

var (
	// ErrInvalidShape is matched by *ShapeError.
	ErrInvalidShape = errors.New("invalid tensor shape")

	// ErrObjectCreationFailure is returned when the native runtime returns a nil handle without a status.
	ErrObjectCreationFailure = errors.New("native object creation failed")

	// ErrConsumed is returned when using a value already consumed by a state transition
	// (SessionBuilder.Build, Session.Close, ClosedSession.Delete) or finalized.
	ErrConsumed = errors.New("value already consumed or finalized")

	// ErrGraphFinalized is returned when using a Graph, or a value derived from it, after Graph.Finalize.
	ErrGraphFinalized = errors.New("graph already finalized")
)

// ShapeError is returned when the length of a tensor's data doesn't match its shape.
// It matches ErrInvalidShape with errors.Is.
type ShapeError struct {
	DataLen int
	Shape   []int64
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("tensor shape %v not valid for tensor data of len %d", e.Shape, e.DataLen)
}

// Is implements errors.Is.
func (e *ShapeError) Is(target error) bool {
	return target == ErrInvalidShape
}

// CodeOf returns the status code of the *Error in err's chain. It returns OK for a nil error,
// and Unknown if err was not reported by the native runtime.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var tfErr *Error
	if errors.As(err, &tfErr) {
		return tfErr.Code
	}
	return Unknown
}
