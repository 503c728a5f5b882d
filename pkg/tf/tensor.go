// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gotf/pkg/native"
	"github.com/pkg/errors"
)

// Tensor owns a native tensor holding elements of type T, with a fixed shape.
type Tensor[T TensorType] struct {
	rt    *Runtime
	h     native.Handle
	shape []int64

	// data aliases the native memory.
	data []T
}

// numElements returns the product of the dimensions, or ok=false if a dimension is
// negative or the product overflows.
func numElements(shape []int64) (count int, ok bool) {
	count = 1
	for _, dim := range shape {
		if dim < 0 || (dim > 0 && int64(count) > math.MaxInt/dim) {
			return 0, false
		}
		count *= int(dim)
	}
	return count, true
}

// FromSlice creates a Tensor on the default runtime, see FromSliceWith.
func FromSlice[T TensorType](shape []int64, data []T) (*Tensor[T], error) {
	rt, err := DefaultRuntime()
	if err != nil {
		return nil, err
	}
	return FromSliceWith(rt, shape, data)
}

// FromSliceWith creates a Tensor with the given shape, and copies data into it.
//
// If len(data) doesn't match the number of elements of the shape, it returns a *ShapeError
// (matching ErrInvalidShape), before allocating anything. If the native runtime fails to
// allocate the tensor, it returns ErrObjectCreationFailure.
func FromSliceWith[T TensorType](rt *Runtime, shape []int64, data []T) (*Tensor[T], error) {
	count, ok := numElements(shape)
	if !ok || len(data) != count {
		return nil, &ShapeError{DataLen: len(data), Shape: slices.Clone(shape)}
	}
	t, err := newUninitialized[T](rt, shape, count)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// newUninitialized allocates the native tensor. Its contents must be set before use.
func newUninitialized[T TensorType](rt *Runtime, shape []int64, count int) (*Tensor[T], error) {
	dtype := DataTypeOf[T]()
	h := rt.api.AllocateTensor(dtype, shape, count*dtype.Size())
	if h == nil {
		return nil, errors.WithMessagef(ErrObjectCreationFailure, "allocating %s tensor of shape %v", dtype, shape)
	}
	var data []T
	if count > 0 {
		ptr := rt.api.TensorData(h)
		if ptr == nil {
			rt.api.DeleteTensor(h)
			return nil, errors.WithMessagef(ErrObjectCreationFailure, "%s tensor of shape %v has no data", dtype, shape)
		}
		data = unsafe.Slice((*T)(ptr), count)
	}
	t := &Tensor[T]{
		rt:    rt,
		h:     h,
		shape: slices.Clone(shape),
		data:  data,
	}
	RegisterFinalizer(t)
	return t, nil
}

// IsNil returns whether the Tensor was finalized.
func (t *Tensor[T]) IsNil() bool {
	return t == nil || t.h == nil
}

// Data returns the tensor's elements, in row-major order. The slice aliases the native memory:
// changes to it change the tensor, and it is only valid until the Tensor is finalized.
//
// It returns nil if the Tensor was finalized.
func (t *Tensor[T]) Data() []T {
	if t.IsNil() {
		return nil
	}
	return t.data
}

// Shape returns a copy of the tensor's dimensions.
func (t *Tensor[T]) Shape() []int64 {
	if t == nil {
		return nil
	}
	return slices.Clone(t.shape)
}

// DataType returns the native data type of the elements.
func (t *Tensor[T]) DataType() native.DataType {
	return DataTypeOf[T]()
}

// NumElements returns the number of elements, the product of the dimensions.
func (t *Tensor[T]) NumElements() int {
	if t == nil {
		return 0
	}
	count, _ := numElements(t.shape)
	return count
}

// ByteSize returns the size of the native memory held by the tensor.
func (t *Tensor[T]) ByteSize() int {
	return t.NumElements() * t.DataType().Size()
}

func (t *Tensor[T]) String() string {
	if t.IsNil() {
		return "Tensor(finalized)"
	}
	return fmt.Sprintf("Tensor[%s]%v (%s)", t.DataType(), t.shape, humanize.Bytes(uint64(t.ByteSize())))
}

// Finalize implements Finalizer. It releases the native memory: slices returned by Data become invalid.
func (t *Tensor[T]) Finalize() {
	if t.IsNil() {
		return
	}
	defer runtime.KeepAlive(t)
	t.rt.api.DeleteTensor(t.h)
	t.h = nil
	t.data = nil
}
