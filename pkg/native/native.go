// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package native defines the fixed table of native entry points used to reach the
// TensorFlow C runtime, and a registry of implementations of that table.
//
// The table mirrors a subset of `tensorflow/c/c_api.h` one-to-one: graphs, operations,
// tensors, sessions, statuses and buffers. Nothing in this package manages lifetimes:
// every Handle returned here must be released by the caller with the matching Delete
// entry point, exactly once. See package github.com/gomlx/gotf/pkg/tf for the safe layer.
//
// Implementations register themselves from `init()`, so they are enabled with a blank import:
//
//	import _ "github.com/gomlx/gotf/pkg/native/libtf"  // requires the "tensorflow" build tag.
//	import _ "github.com/gomlx/gotf/pkg/native/simple" // pure Go, in-memory.
package native

import "unsafe"

// Handle is an opaque pointer to a native object. The kind of object is implied by the
// entry point that returned it.
type Handle = unsafe.Pointer

// API is the complete contract surface with the native runtime.
//
// Entry points taking a `status` Handle report failures through it: the caller must read
// it (GetCode, Message) before using any other output of the call.
//
// Implementations are not required to be safe for concurrent use, except that Delete*
// entry points may be called from a finalizer goroutine.
type API interface {
	// Name of the implementation, used by the registry.
	Name() string

	// Version of the native runtime.
	Version() string

	NewStatus() Handle
	DeleteStatus(status Handle)
	GetCode(status Handle) Code
	Message(status Handle) string

	// NewBuffer returns an empty buffer, to be pointed at external data with SetBufferData.
	NewBuffer() Handle
	// NewBufferFromString returns a buffer holding a native copy of data.
	NewBufferFromString(data []byte) Handle
	// SetBufferData points buffer at length bytes at data, which is not owned by the buffer.
	SetBufferData(buffer Handle, data unsafe.Pointer, length int)
	DeleteBuffer(buffer Handle)

	NewGraph() Handle
	DeleteGraph(graph Handle)
	NewImportGraphDefOptions() Handle
	DeleteImportGraphDefOptions(options Handle)
	GraphImportGraphDef(graph, buffer, options, status Handle)
	// GraphOperationByName returns nil if there is no such operation.
	GraphOperationByName(graph Handle, name string) Handle
	// GraphNextOperation returns the operation at *pos and advances it, or nil at the end.
	GraphNextOperation(graph Handle, pos *int) Handle

	OperationName(op Handle) string
	OperationOpType(op Handle) string
	OperationDevice(op Handle) string
	OperationNumInputs(op Handle) int
	OperationNumOutputs(op Handle) int

	// AllocateTensor returns nil if the tensor could not be allocated.
	AllocateTensor(dtype DataType, dims []int64, length int) Handle
	TensorData(tensor Handle) unsafe.Pointer
	DeleteTensor(tensor Handle)

	// NewSessionOptions returns nil if the options could not be allocated.
	NewSessionOptions() Handle
	DeleteSessionOptions(options Handle)
	NewSession(graph, options, status Handle) Handle
	CloseSession(session, status Handle)
	DeleteSession(session, status Handle)
}
