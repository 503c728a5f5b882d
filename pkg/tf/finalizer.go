// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import "runtime"

// Finalizer is any object that owns native resources, released by Finalize.
//
// Finalize is idem-potent: if called multiple times subsequent calls don't affect it.
type Finalizer interface {
	// Finalize frees the underlying native resources, outside Go runtime control.
	Finalize()
}

// RegisterFinalizer makes the garbage collector call o.Finalize when o becomes unreachable.
func RegisterFinalizer[T Finalizer](o T) {
	runtime.SetFinalizer(o, func(o T) {
		o.Finalize()
	})
}

// unregisterFinalizer is used when ownership of o's native resources moves to another value.
func unregisterFinalizer(o any) {
	runtime.SetFinalizer(o, nil)
}
