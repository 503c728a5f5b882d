// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tf is a safe layer over the TensorFlow C runtime: it imports serialized graphs,
// looks up their operations, builds sessions and allocates tensors, while making sure every
// native object is released exactly once and never used after.
//
// Ownership:
//
//   - Graph, Tensor, Session, ClosedSession and SessionBuilder each own one native handle.
//     They are released by an explicit call to Finalize (or to a consuming state transition
//     like Session.Close), or, as a safety net, when garbage collected. Finalize is idempotent.
//   - Operation, Input and Output borrow from a Graph: they hold a reference to it, so the
//     Graph can't be garbage collected while they are reachable. After an explicit
//     Graph.Finalize they report zero values (empty names, no inputs/outputs).
//   - Sessions and session builders are tracked by their Graph: Graph.Finalize tears them
//     down before releasing the native graph.
//   - Tensor.Data aliases native memory. The slice is only valid while the Tensor is alive,
//     use runtime.KeepAlive(tensor) if the Tensor itself is not used after accessing its data.
//
// Errors reported by the native runtime are returned as *Error, with the native message text
// unmodified. Errors during implicit teardown (Finalize, garbage collection) can't be returned:
// they are logged with klog at verbosity 1 and discarded.
//
// The package is not safe for concurrent use: callers sharing a Graph, Session or Tensor across
// goroutines must synchronize their access.
//
// The native runtime is selected with NewRuntime, or implicitly by the package level functions
// (GraphFromProtobuf, FromSlice), see native.Default.
package tf
