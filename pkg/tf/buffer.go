// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"runtime"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gotf/pkg/native"
)

// Buffer wraps a native byte buffer, used to pass serialized graphs to the native runtime.
//
// A view Buffer (NewBufferView) points to Go memory: the bytes are pinned until the Buffer is
// finalized, and must not be modified in between. A copy Buffer (NewBufferCopy) holds its own
// native copy.
type Buffer struct {
	rt     *Runtime
	h      native.Handle
	length int
	pinner runtime.Pinner
}

func newBuffer(rt *Runtime, h native.Handle, length int) *Buffer {
	if h == nil {
		exceptions.Panicf("tf: native runtime %q failed to allocate a buffer", rt.Name())
	}
	b := &Buffer{rt: rt, h: h, length: length}
	RegisterFinalizer(b)
	return b
}

// NewBufferView creates a Buffer pointing to data, without copying it.
func NewBufferView(rt *Runtime, data []byte) *Buffer {
	b := newBuffer(rt, rt.api.NewBuffer(), len(data))
	if len(data) > 0 {
		ptr := unsafe.SliceData(data)
		b.pinner.Pin(ptr)
		rt.api.SetBufferData(b.h, unsafe.Pointer(ptr), len(data))
	}
	return b
}

// NewBufferCopy creates a Buffer holding a native copy of data.
func NewBufferCopy(rt *Runtime, data []byte) *Buffer {
	return newBuffer(rt, rt.api.NewBufferFromString(data), len(data))
}

// IsNil returns whether the Buffer was finalized.
func (b *Buffer) IsNil() bool {
	return b == nil || b.h == nil
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	if b.IsNil() {
		return 0
	}
	return b.length
}

// Finalize implements Finalizer. For a view Buffer only the native bookkeeping is freed,
// the viewed bytes are just unpinned.
func (b *Buffer) Finalize() {
	if b.IsNil() {
		return
	}
	defer runtime.KeepAlive(b)
	b.rt.api.DeleteBuffer(b.h)
	b.h = nil
	b.pinner.Unpin()
}
