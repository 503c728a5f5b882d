// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"runtime"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gotf/pkg/native"
)

// Status wraps a native status object: it is created right before a fallible native call,
// read once right after it, and then finalized.
type Status struct {
	rt *Runtime
	h  native.Handle
}

// newStatus creates a fresh non-error status. The native runtime failing to allocate it is
// unrecoverable, since there is no status to report it with: it panics.
func newStatus(rt *Runtime) *Status {
	h := rt.api.NewStatus()
	if h == nil {
		exceptions.Panicf("tf: native runtime %q failed to allocate a status object", rt.Name())
	}
	s := &Status{rt: rt, h: h}
	RegisterFinalizer(s)
	return s
}

// IsNil returns whether the status was finalized.
func (s *Status) IsNil() bool {
	return s == nil || s.h == nil
}

// Code returns the current code, or OK if the status was finalized.
func (s *Status) Code() Code {
	if s.IsNil() {
		return OK
	}
	defer runtime.KeepAlive(s)
	return s.rt.api.GetCode(s.h)
}

// Message returns the native message, or "" if the code is OK.
func (s *Status) Message() string {
	if s.Code() == OK {
		return ""
	}
	defer runtime.KeepAlive(s)
	return s.rt.api.Message(s.h)
}

// Err returns nil if the status is OK, or an *Error with its code and message otherwise.
func (s *Status) Err() error {
	code := s.Code()
	if code == OK {
		return nil
	}
	return &Error{Code: code, Message: s.Message()}
}

// Finalize implements Finalizer.
func (s *Status) Finalize() {
	if s.IsNil() {
		return
	}
	defer runtime.KeepAlive(s)
	s.rt.api.DeleteStatus(s.h)
	s.h = nil
}

// withStatus calls fn with a fresh native status, and converts the status left by it to an error.
// The status is released before returning.
func withStatus(rt *Runtime, fn func(status native.Handle)) error {
	s := newStatus(rt)
	defer s.Finalize()
	fn(s.h)
	return s.Err()
}
