// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"fmt"
	"iter"
	"runtime"
	"unicode/utf8"

	"github.com/gomlx/gotf/pkg/native"
)

// Operation is a node of a Graph. It doesn't own anything: the native operation belongs to
// the graph, and it is only created by the Graph lookup methods.
//
// After its Graph is finalized, all accessors return zero values.
type Operation struct {
	graph *Graph
	h     native.Handle
}

// Graph the operation belongs to.
func (op *Operation) Graph() *Graph {
	return op.graph
}

// metadata returns the native string returned by fn, or "" if it is not valid UTF-8 or the
// graph was finalized. Metadata is for display, it never fails.
func (op *Operation) metadata(fn func(api native.API, h native.Handle) string) string {
	if op == nil || op.graph.IsNil() {
		return ""
	}
	defer runtime.KeepAlive(op)
	s := fn(op.graph.rt.api, op.h)
	if !utf8.ValidString(s) {
		return ""
	}
	return s
}

// Name of the operation, unique in its graph.
func (op *Operation) Name() string {
	return op.metadata(native.API.OperationName)
}

// OpType returns the kind of operation, e.g. "Placeholder" or "Add".
func (op *Operation) OpType() string {
	return op.metadata(native.API.OperationOpType)
}

// Device the operation is assigned to, or "" if unset.
func (op *Operation) Device() string {
	return op.metadata(native.API.OperationDevice)
}

// NumInputs returns the number of input slots of the operation.
func (op *Operation) NumInputs() int {
	if op == nil || op.graph.IsNil() {
		return 0
	}
	defer runtime.KeepAlive(op)
	return op.graph.rt.api.OperationNumInputs(op.h)
}

// NumOutputs returns the number of output slots of the operation.
func (op *Operation) NumOutputs() int {
	if op == nil || op.graph.IsNil() {
		return 0
	}
	defer runtime.KeepAlive(op)
	return op.graph.rt.api.OperationNumOutputs(op.h)
}

// Inputs iterates over the input slots of the operation, in declaration order.
func (op *Operation) Inputs() iter.Seq[Input] {
	return func(yield func(Input) bool) {
		n := op.NumInputs()
		for ii := range n {
			if !yield(Input{op: op, index: ii}) {
				return
			}
		}
	}
}

// Outputs iterates over the output slots of the operation, in declaration order.
func (op *Operation) Outputs() iter.Seq[Output] {
	return func(yield func(Output) bool) {
		n := op.NumOutputs()
		for ii := range n {
			if !yield(Output{op: op, index: ii}) {
				return
			}
		}
	}
}

func (op *Operation) String() string {
	return fmt.Sprintf("%s (%s)", op.Name(), op.OpType())
}

// Input is one input slot of an Operation. It is only created by Operation.Inputs, so
// its index is always in range.
type Input struct {
	op    *Operation
	index int
}

// Operation the input belongs to.
func (in Input) Operation() *Operation {
	return in.op
}

// Index of the input slot, starting from 0.
func (in Input) Index() int {
	return in.index
}

func (in Input) String() string {
	return fmt.Sprintf("%s:%d", in.op.Name(), in.index)
}

// Output is one output slot of an Operation. It is only created by Operation.Outputs, so
// its index is always in range.
type Output struct {
	op    *Operation
	index int
}

// Operation the output belongs to.
func (out Output) Operation() *Operation {
	return out.op
}

// Index of the output slot, starting from 0.
func (out Output) Index() int {
	return out.index
}

func (out Output) String() string {
	return fmt.Sprintf("%s:%d", out.op.Name(), out.index)
}
