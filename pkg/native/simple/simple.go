// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package simple implements the native function table in pure Go, holding every native
// object in Go memory.
//
// It decodes GraphDef protos and keeps their operation catalog, allocates tensors,
// and tracks sessions through their open/closed/deleted states, but it doesn't execute
// anything. It exists so programs and tests can use github.com/gomlx/gotf/pkg/tf without
// the TensorFlow C library.
//
// Every handle is accounted for: Live reports how many of each kind are alive, and
// releasing a handle that is not alive (a double free) or using a deleted one panics.
//
// Importing the package registers a Runtime under the name "simple":
//
//	import _ "github.com/gomlx/gotf/pkg/native/simple"
package simple

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gotf/pkg/native"
)

// Name of the runtime in the native registry.
const Name = "simple"

// Version reported by the runtime.
const Version = "0.1.0-simple"

func init() {
	native.Register(New())
}

// kind of native object behind a handle.
type kind int

const (
	kindStatus kind = iota
	kindBuffer
	kindGraph
	kindImportOptions
	kindTensor
	kindSessionOptions
	kindSession
)

var kindNames = [...]string{
	kindStatus:         "status",
	kindBuffer:         "buffer",
	kindGraph:          "graph",
	kindImportOptions:  "import options",
	kindTensor:         "tensor",
	kindSessionOptions: "session options",
	kindSession:        "session",
}

func (k kind) String() string { return kindNames[k] }

type status struct {
	code native.Code
	msg  string
}

type buffer struct {
	owned    []byte
	external unsafe.Pointer
	length   int
}

func (b *buffer) bytes() []byte {
	if b.external != nil {
		return unsafe.Slice((*byte)(b.external), b.length)
	}
	return b.owned
}

type graph struct {
	nodes    []*node
	byName   map[string]*node
	sessions int
	deleted  bool
}

type node struct {
	graph                 *graph
	name, opType, device  string
	numInputs, numOutputs int
}

type importOptions struct {
	prefix string
}

type tensor struct {
	dtype  native.DataType
	dims   []int64
	words  []uint64
	length int
}

type sessionOptions struct {
	config []byte
}

type session struct {
	graph  *graph
	closed bool
}

// Runtime implements native.API. The zero value is not usable, create it with New.
//
// It is safe for concurrent use.
type Runtime struct {
	mu     sync.Mutex
	live   map[native.Handle]kind
	faults map[Entry]fault
}

var _ native.API = (*Runtime)(nil)

// New creates a new Runtime, with no live objects.
func New() *Runtime {
	return &Runtime{
		live:   make(map[native.Handle]kind),
		faults: make(map[Entry]fault),
	}
}

// Name implements native.API.
func (r *Runtime) Name() string { return Name }

// Version implements native.API.
func (r *Runtime) Version() string { return Version }

// track registers a new live handle. Must be called with r.mu held.
func (r *Runtime) track(h native.Handle, k kind) native.Handle {
	r.live[h] = k
	return h
}

// untrack releases a live handle, and panics if it is not alive. Must be called with r.mu held.
func (r *Runtime) untrack(h native.Handle, k kind) {
	r.mustLive(h, k)
	delete(r.live, h)
}

// mustLive panics if h is not a live handle of kind k. Must be called with r.mu held.
func (r *Runtime) mustLive(h native.Handle, k kind) {
	if h == nil {
		exceptions.Panicf("simple: nil %s handle", k)
	}
	got, found := r.live[h]
	if !found {
		exceptions.Panicf("simple: %s handle %p is not alive (already deleted?)", k, h)
	}
	if got != k {
		exceptions.Panicf("simple: handle %p is a %s, not a %s", h, got, k)
	}
}

// Counts of live native objects, per kind.
type Counts struct {
	Statuses, Buffers, Graphs, ImportOptions, Tensors, SessionOptions, Sessions int

	// TensorBytes is the total memory held by live tensors.
	TensorBytes int
}

// Total number of live native objects.
func (c Counts) Total() int {
	return c.Statuses + c.Buffers + c.Graphs + c.ImportOptions + c.Tensors + c.SessionOptions + c.Sessions
}

func (c Counts) String() string {
	return fmt.Sprintf("statuses=%d buffers=%d graphs=%d import_options=%d tensors=%d (%s) session_options=%d sessions=%d",
		c.Statuses, c.Buffers, c.Graphs, c.ImportOptions, c.Tensors, humanize.Bytes(uint64(c.TensorBytes)),
		c.SessionOptions, c.Sessions)
}

// Live returns the counts of native objects created and not yet deleted.
func (r *Runtime) Live() (c Counts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, k := range r.live {
		switch k {
		case kindStatus:
			c.Statuses++
		case kindBuffer:
			c.Buffers++
		case kindGraph:
			c.Graphs++
		case kindImportOptions:
			c.ImportOptions++
		case kindTensor:
			c.Tensors++
			c.TensorBytes += (*tensor)(h).length
		case kindSessionOptions:
			c.SessionOptions++
		case kindSession:
			c.Sessions++
		}
	}
	return
}

// NewStatus implements native.API.
func (r *Runtime) NewStatus() native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.takeFault(EntryNewStatus); found {
		return nil
	}
	return r.track(native.Handle(&status{}), kindStatus)
}

// DeleteStatus implements native.API.
func (r *Runtime) DeleteStatus(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindStatus)
}

// GetCode implements native.API.
func (r *Runtime) GetCode(h native.Handle) native.Code {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindStatus)
	return (*status)(h).code
}

// Message implements native.API.
func (r *Runtime) Message(h native.Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindStatus)
	return (*status)(h).msg
}

// setStatus stores the result of a call. Must be called with r.mu held.
func (r *Runtime) setStatus(h native.Handle, code native.Code, format string, args ...any) {
	r.mustLive(h, kindStatus)
	s := (*status)(h)
	s.code = code
	if code == native.OK {
		s.msg = ""
	} else {
		s.msg = fmt.Sprintf(format, args...)
	}
}

// NewBuffer implements native.API.
func (r *Runtime) NewBuffer() native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track(native.Handle(&buffer{}), kindBuffer)
}

// NewBufferFromString implements native.API.
func (r *Runtime) NewBufferFromString(data []byte) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := &buffer{owned: make([]byte, len(data)), length: len(data)}
	copy(b.owned, data)
	return r.track(native.Handle(b), kindBuffer)
}

// SetBufferData implements native.API.
func (r *Runtime) SetBufferData(h native.Handle, data unsafe.Pointer, length int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindBuffer)
	b := (*buffer)(h)
	b.owned = nil
	b.external = data
	b.length = length
}

// DeleteBuffer implements native.API.
func (r *Runtime) DeleteBuffer(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindBuffer)
}

// NewGraph implements native.API.
func (r *Runtime) NewGraph() native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track(native.Handle(&graph{byName: make(map[string]*node)}), kindGraph)
}

// DeleteGraph implements native.API. It panics if sessions created on the graph are still alive.
func (r *Runtime) DeleteGraph(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindGraph)
	g := (*graph)(h)
	if g.sessions > 0 {
		exceptions.Panicf("simple: graph %p deleted while %d session(s) created on it are alive", h, g.sessions)
	}
	g.deleted = true
	r.untrack(h, kindGraph)
}

// NewImportGraphDefOptions implements native.API.
func (r *Runtime) NewImportGraphDefOptions() native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.track(native.Handle(&importOptions{}), kindImportOptions)
}

// DeleteImportGraphDefOptions implements native.API.
func (r *Runtime) DeleteImportGraphDefOptions(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindImportOptions)
}

// GraphImportGraphDef implements native.API.
//
// The import is atomic: on error the graph is left unchanged.
func (r *Runtime) GraphImportGraphDef(graphH, bufferH, optionsH, statusH native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(graphH, kindGraph)
	r.mustLive(bufferH, kindBuffer)
	r.mustLive(optionsH, kindImportOptions)
	if f, found := r.takeFault(EntryGraphImportGraphDef); found {
		r.setStatus(statusH, f.code, "%s", f.msg)
		return
	}
	code, msg := importInto((*graph)(graphH), (*buffer)(bufferH).bytes())
	r.setStatus(statusH, code, "%s", msg)
}

func importInto(g *graph, data []byte) (native.Code, string) {
	defs, err := parseGraphDef(data)
	if err != nil {
		return native.InvalidArgument, fmt.Sprintf("Invalid GraphDef: %v", err)
	}
	newNodes := make(map[string]*node, len(defs))
	nodes := make([]*node, 0, len(defs))
	for _, def := range defs {
		if def.name == "" {
			return native.InvalidArgument, fmt.Sprintf("Node of op type %q has an empty name", def.op)
		}
		if _, found := g.byName[def.name]; found {
			return native.InvalidArgument, fmt.Sprintf("Node name '%s' already exists in the Graph", def.name)
		}
		if _, found := newNodes[def.name]; found {
			return native.InvalidArgument, fmt.Sprintf("Node '%s' is not unique", def.name)
		}
		op, found := opSet[def.op]
		if !found {
			return native.NotFound, fmt.Sprintf("Op type not registered '%s' in binary", def.op)
		}
		n := &node{graph: g, name: def.name, opType: def.op, device: def.device, numOutputs: op.numOutputs}
		newNodes[def.name] = n
		nodes = append(nodes, n)
	}
	lookup := func(name string) *node {
		if n, found := g.byName[name]; found {
			return n
		}
		return newNodes[name]
	}
	for ii, def := range defs {
		n := nodes[ii]
		for _, input := range def.inputs {
			name, index, control, err := splitInput(input)
			if err != nil {
				return native.InvalidArgument, fmt.Sprintf("Node '%s': %v", def.name, err)
			}
			src := lookup(name)
			if src == nil {
				return native.InvalidArgument, fmt.Sprintf("Node '%s': Unknown input node '%s'", def.name, input)
			}
			if control {
				continue
			}
			if index >= src.numOutputs {
				return native.OutOfRange, fmt.Sprintf("Node '%s': Connecting to invalid output %d of source node %s which has %d outputs",
					def.name, index, name, src.numOutputs)
			}
			n.numInputs++
		}
		if want := opSet[def.op].numInputs; want != variadic && n.numInputs != want {
			return native.InvalidArgument, fmt.Sprintf("NodeDef '%s' of op %s expected %d inputs, got %d", def.name, def.op, want, n.numInputs)
		}
	}
	for _, n := range nodes {
		g.nodes = append(g.nodes, n)
		g.byName[n.name] = n
	}
	return native.OK, ""
}

// GraphOperationByName implements native.API.
func (r *Runtime) GraphOperationByName(h native.Handle, name string) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindGraph)
	n, found := (*graph)(h).byName[name]
	if !found {
		return nil
	}
	return native.Handle(n)
}

// GraphNextOperation implements native.API.
func (r *Runtime) GraphNextOperation(h native.Handle, pos *int) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindGraph)
	g := (*graph)(h)
	if *pos < 0 || *pos >= len(g.nodes) {
		return nil
	}
	n := g.nodes[*pos]
	*pos++
	return native.Handle(n)
}

// operation returns the node behind an operation handle, and panics if its graph was deleted.
func operation(h native.Handle) *node {
	if h == nil {
		exceptions.Panicf("simple: nil operation handle")
	}
	n := (*node)(h)
	if n.graph.deleted {
		exceptions.Panicf("simple: operation %q used after its graph was deleted", n.name)
	}
	return n
}

// OperationName implements native.API.
func (r *Runtime) OperationName(h native.Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return operation(h).name
}

// OperationOpType implements native.API.
func (r *Runtime) OperationOpType(h native.Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return operation(h).opType
}

// OperationDevice implements native.API.
func (r *Runtime) OperationDevice(h native.Handle) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return operation(h).device
}

// OperationNumInputs implements native.API.
func (r *Runtime) OperationNumInputs(h native.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return operation(h).numInputs
}

// OperationNumOutputs implements native.API.
func (r *Runtime) OperationNumOutputs(h native.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return operation(h).numOutputs
}

// AllocateTensor implements native.API. It returns nil if the data type is unknown, or if
// length doesn't match the dimensions.
func (r *Runtime) AllocateTensor(dtype native.DataType, dims []int64, length int) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.takeFault(EntryAllocateTensor); found {
		return nil
	}
	size := dtype.Size()
	if size == 0 {
		return nil
	}
	count := int64(1)
	for _, dim := range dims {
		if dim < 0 {
			return nil
		}
		count *= dim
	}
	if int64(length) != count*int64(size) {
		return nil
	}
	t := &tensor{
		dtype:  dtype,
		dims:   append([]int64(nil), dims...),
		words:  make([]uint64, (length+7)/8), // 8-bytes aligned for any element type.
		length: length,
	}
	return r.track(native.Handle(t), kindTensor)
}

// TensorData implements native.API.
func (r *Runtime) TensorData(h native.Handle) unsafe.Pointer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindTensor)
	t := (*tensor)(h)
	if len(t.words) == 0 {
		return nil
	}
	return unsafe.Pointer(&t.words[0])
}

// DeleteTensor implements native.API.
func (r *Runtime) DeleteTensor(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindTensor)
}

// NewSessionOptions implements native.API.
func (r *Runtime) NewSessionOptions() native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.takeFault(EntryNewSessionOptions); found {
		return nil
	}
	return r.track(native.Handle(&sessionOptions{}), kindSessionOptions)
}

// DeleteSessionOptions implements native.API.
func (r *Runtime) DeleteSessionOptions(h native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindSessionOptions)
}

// NewSession implements native.API.
func (r *Runtime) NewSession(graphH, optionsH, statusH native.Handle) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(graphH, kindGraph)
	r.mustLive(optionsH, kindSessionOptions)
	if f, found := r.takeFault(EntryNewSession); found {
		r.setStatus(statusH, f.code, "%s", f.msg)
		return nil
	}
	g := (*graph)(graphH)
	g.sessions++
	r.setStatus(statusH, native.OK, "")
	return r.track(native.Handle(&session{graph: g}), kindSession)
}

// CloseSession implements native.API.
func (r *Runtime) CloseSession(h, statusH native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustLive(h, kindSession)
	if f, found := r.takeFault(EntryCloseSession); found {
		r.setStatus(statusH, f.code, "%s", f.msg)
		return
	}
	(*session)(h).closed = true
	r.setStatus(statusH, native.OK, "")
}

// DeleteSession implements native.API. The session is deleted even if an error is reported.
func (r *Runtime) DeleteSession(h, statusH native.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrack(h, kindSession)
	s := (*session)(h)
	s.closed = true
	s.graph.sessions--
	if f, found := r.takeFault(EntryDeleteSession); found {
		r.setStatus(statusH, f.code, "%s", f.msg)
		return
	}
	r.setStatus(statusH, native.OK, "")
}
