// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simple

import (
	"testing"

	"github.com/gomlx/gotf/internal/graphdefs"
	"github.com/gomlx/gotf/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importGraph imports data into graph, and returns the resulting status.
func importGraph(r *Runtime, graph native.Handle, data []byte) (native.Code, string) {
	buffer := r.NewBufferFromString(data)
	options := r.NewImportGraphDefOptions()
	status := r.NewStatus()
	defer func() {
		r.DeleteStatus(status)
		r.DeleteImportGraphDefOptions(options)
		r.DeleteBuffer(buffer)
	}()
	r.GraphImportGraphDef(graph, buffer, options, status)
	return r.GetCode(status), r.Message(status)
}

func opNames(r *Runtime, graph native.Handle) []string {
	var names []string
	pos := 0
	for {
		op := r.GraphNextOperation(graph, &pos)
		if op == nil {
			return names
		}
		names = append(names, r.OperationName(op))
	}
}

func TestImport(t *testing.T) {
	r := New()
	graph := r.NewGraph()
	code, msg := importGraph(r, graph, graphdefs.Addition())
	require.Equal(t, native.OK, code, msg)
	assert.Equal(t, []string{"x", "one", "add", "y"}, opNames(r, graph))

	add := r.GraphOperationByName(graph, "add")
	require.NotNil(t, add)
	assert.Equal(t, "Add", r.OperationOpType(add))
	assert.Equal(t, 2, r.OperationNumInputs(add))
	assert.Equal(t, 1, r.OperationNumOutputs(add))
	assert.Nil(t, r.GraphOperationByName(graph, "missing"))

	// A second import adds to the graph, and may refer to existing nodes.
	code, msg = importGraph(r, graph, graphdefs.Encode(
		graphdefs.Node{Name: "z", Op: "Neg", Inputs: []string{"y:0", "^x"}, Device: "/device:CPU:0"}))
	require.Equal(t, native.OK, code, msg)
	z := r.GraphOperationByName(graph, "z")
	assert.Equal(t, 1, r.OperationNumInputs(z), "control inputs are not counted")
	assert.Equal(t, "/device:CPU:0", r.OperationDevice(z))

	r.DeleteGraph(graph)
	assert.Zero(t, r.Live().Total())
}

func TestImportErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
		code native.Code
	}{
		{"garbage", []byte("invalid"), native.InvalidArgument},
		{"truncated", graphdefs.Addition()[:10], native.InvalidArgument},
		{"unknown op", graphdefs.Encode(graphdefs.Node{Name: "a", Op: "Frobnicate"}), native.NotFound},
		{"empty name", graphdefs.Encode(graphdefs.Node{Op: "NoOp"}), native.InvalidArgument},
		{"duplicate", graphdefs.Encode(
			graphdefs.Node{Name: "a", Op: "NoOp"}, graphdefs.Node{Name: "a", Op: "NoOp"}), native.InvalidArgument},
		{"already exists", graphdefs.Encode(graphdefs.Node{Name: "x", Op: "NoOp"}), native.InvalidArgument},
		{"unknown input", graphdefs.Encode(
			graphdefs.Node{Name: "a", Op: "Identity", Inputs: []string{"nowhere"}}), native.InvalidArgument},
		{"malformed input", graphdefs.Encode(
			graphdefs.Node{Name: "a", Op: "Identity", Inputs: []string{"x:y"}}), native.InvalidArgument},
		{"invalid output", graphdefs.Encode(
			graphdefs.Node{Name: "a", Op: "Identity", Inputs: []string{"x:1"}}), native.OutOfRange},
		{"arity", graphdefs.Encode(
			graphdefs.Node{Name: "a", Op: "Add", Inputs: []string{"x"}}), native.InvalidArgument},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			graph := r.NewGraph()
			defer r.DeleteGraph(graph)
			code, msg := importGraph(r, graph, graphdefs.Encode(graphdefs.Node{Name: "x", Op: "Placeholder"}))
			require.Equal(t, native.OK, code, msg)

			code, msg = importGraph(r, graph, tc.data)
			assert.Equal(t, tc.code, code, "message: %s", msg)
			assert.NotEmpty(t, msg)
			assert.Equal(t, []string{"x"}, opNames(r, graph), "failed imports leave the graph unchanged")
		})
	}
}

func TestVariadicAndRegisteredOps(t *testing.T) {
	RegisterOp("TestOnlyPair", 0, 2)
	r := New()
	graph := r.NewGraph()
	defer r.DeleteGraph(graph)
	code, msg := importGraph(r, graph, graphdefs.Encode(
		graphdefs.Node{Name: "pair", Op: "TestOnlyPair"},
		graphdefs.Node{Name: "sum", Op: "AddN", Inputs: []string{"pair", "pair:1", "pair:0"}},
	))
	require.Equal(t, native.OK, code, msg)
	assert.Equal(t, 3, r.OperationNumInputs(r.GraphOperationByName(graph, "sum")))
	assert.Equal(t, 2, r.OperationNumOutputs(r.GraphOperationByName(graph, "pair")))
}

func TestSplitInput(t *testing.T) {
	for _, tc := range []struct {
		input   string
		name    string
		index   int
		control bool
	}{
		{"x", "x", 0, false},
		{"x:3", "x", 3, false},
		{"scope/x:1", "scope/x", 1, false},
		{"^x", "x", -1, true},
	} {
		name, index, control, err := splitInput(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.name, name)
		assert.Equal(t, tc.index, index)
		assert.Equal(t, tc.control, control)
	}
	for _, input := range []string{"", ":1", "x:", "x:-1", "x:a"} {
		_, _, _, err := splitInput(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestHandleChecks(t *testing.T) {
	r := New()
	status := r.NewStatus()
	r.DeleteStatus(status)
	assert.Panics(t, func() { r.DeleteStatus(status) }, "double free")
	assert.Panics(t, func() { r.GetCode(status) }, "use after free")
	assert.Panics(t, func() { r.DeleteBuffer(nil) }, "nil handle")

	buffer := r.NewBuffer()
	assert.Panics(t, func() { r.DeleteTensor(buffer) }, "wrong kind")
	r.DeleteBuffer(buffer)

	graph := r.NewGraph()
	code, _ := importGraph(r, graph, graphdefs.Addition())
	require.Equal(t, native.OK, code)
	x := r.GraphOperationByName(graph, "x")
	r.DeleteGraph(graph)
	assert.Panics(t, func() { r.OperationName(x) }, "operation of deleted graph")
	assert.Zero(t, r.Live().Total())
}

func TestSessions(t *testing.T) {
	r := New()
	graph := r.NewGraph()
	options := r.NewSessionOptions()
	status := r.NewStatus()

	session := r.NewSession(graph, options, status)
	require.NotNil(t, session)
	assert.Equal(t, native.OK, r.GetCode(status))
	r.DeleteSessionOptions(options)
	assert.Panics(t, func() { r.DeleteGraph(graph) }, "graph with live sessions")

	r.CloseSession(session, status)
	assert.Equal(t, native.OK, r.GetCode(status))
	r.InjectFault(EntryDeleteSession, native.Internal, "oops")
	r.DeleteSession(session, status)
	assert.Equal(t, native.Internal, r.GetCode(status))
	assert.Equal(t, "oops", r.Message(status))
	assert.Zero(t, r.Live().Sessions)

	r.DeleteGraph(graph)
	r.DeleteStatus(status)
	assert.Zero(t, r.Live().Total())
}

func TestTensors(t *testing.T) {
	r := New()
	assert.Nil(t, r.AllocateTensor(native.Float, []int64{2, 2}, 15), "length mismatch")
	assert.Nil(t, r.AllocateTensor(native.DataType(100), []int64{2}, 2), "unknown data type")
	assert.Nil(t, r.AllocateTensor(native.Int8, []int64{-1}, 0), "negative dimension")

	tensor := r.AllocateTensor(native.Double, []int64{3}, 24)
	require.NotNil(t, tensor)
	assert.NotNil(t, r.TensorData(tensor))
	assert.Equal(t, 24, r.Live().TensorBytes)
	empty := r.AllocateTensor(native.Double, []int64{0}, 0)
	require.NotNil(t, empty)
	assert.Nil(t, r.TensorData(empty))
	assert.Contains(t, r.Live().String(), "tensors=2 (24 B)")

	r.DeleteTensor(tensor)
	r.DeleteTensor(empty)
	assert.Zero(t, r.Live().Total())
}

func TestFaultsAreOneShot(t *testing.T) {
	r := New()
	r.InjectFault(EntryNewStatus, native.OK, "")
	assert.Nil(t, r.NewStatus())
	status := r.NewStatus()
	require.NotNil(t, status)
	r.DeleteStatus(status)
}
