// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"iter"
	"runtime"
	"strings"
	"sync"

	"github.com/gomlx/gotf/pkg/native"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Graph owns a native graph, imported from a serialized GraphDef. It is read-only after import.
//
// Values derived from it (Operation, Input, Output, SessionBuilder, Session, ClosedSession)
// hold a reference to it, so it is never garbage collected before them.
type Graph struct {
	rt *Runtime

	// mu protects h and dependents: dependents may be finalized by the GC from another goroutine.
	mu         sync.Mutex
	h          native.Handle
	dependents map[dependent]struct{}
}

// dependent is a native object that must be released before the graph it was created on.
type dependent interface {
	// teardown releases the native object, discarding errors. It is idem-potent.
	teardown()
}

// GraphFromProtobuf imports a serialized GraphDef on the default runtime, see Runtime.ImportGraph.
func GraphFromProtobuf(data []byte) (*Graph, error) {
	rt, err := DefaultRuntime()
	if err != nil {
		return nil, err
	}
	return rt.ImportGraph(data)
}

// ImportGraph creates a new Graph, and imports the serialized GraphDef data into it with the
// default import options.
//
// Malformed data is reported by the native runtime, as an *Error. Nothing is leaked on failure.
func (rt *Runtime) ImportGraph(data []byte) (*Graph, error) {
	buffer := NewBufferView(rt, data)
	defer buffer.Finalize()

	h := rt.api.NewGraph()
	if h == nil {
		return nil, errors.WithMessage(ErrObjectCreationFailure, "TF_NewGraph")
	}
	options := rt.api.NewImportGraphDefOptions()
	if options == nil {
		rt.api.DeleteGraph(h)
		return nil, errors.WithMessage(ErrObjectCreationFailure, "TF_NewImportGraphDefOptions")
	}
	err := withStatus(rt, func(status native.Handle) {
		rt.api.GraphImportGraphDef(h, buffer.h, options, status)
	})
	rt.api.DeleteImportGraphDefOptions(options)
	if err != nil {
		rt.api.DeleteGraph(h)
		return nil, err
	}
	g := &Graph{rt: rt, h: h}
	RegisterFinalizer(g)
	return g, nil
}

// IsNil returns whether the Graph was finalized.
func (g *Graph) IsNil() bool {
	if g == nil {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h == nil
}

// Runtime the graph was created with.
func (g *Graph) Runtime() *Runtime {
	return g.rt
}

// handle returns the native graph, or nil if finalized.
func (g *Graph) handle() native.Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.h
}

// track registers d to be torn down before the graph is released.
func (g *Graph) track(d dependent) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.h == nil {
		return ErrGraphFinalized
	}
	if g.dependents == nil {
		g.dependents = make(map[dependent]struct{})
	}
	g.dependents[d] = struct{}{}
	return nil
}

// forget is called by d once it released its native object.
func (g *Graph) forget(d dependent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.dependents, d)
}

// OperationByName returns the operation with the given name.
// It returns false if there is no such operation, or if name contains a NUL character.
func (g *Graph) OperationByName(name string) (*Operation, bool) {
	if strings.IndexByte(name, 0) >= 0 {
		return nil, false
	}
	h := g.handle()
	if h == nil {
		return nil, false
	}
	defer runtime.KeepAlive(g)
	op := g.rt.api.GraphOperationByName(h, name)
	if op == nil {
		return nil, false
	}
	return &Operation{graph: g, h: op}, true
}

// Operations iterates over the operations of the graph, in the native runtime's order.
// Each iteration starts again from the first operation.
func (g *Graph) Operations() iter.Seq[*Operation] {
	return func(yield func(*Operation) bool) {
		defer runtime.KeepAlive(g)
		pos := 0
		for {
			h := g.handle()
			if h == nil {
				return
			}
			op := g.rt.api.GraphNextOperation(h, &pos)
			if op == nil {
				return
			}
			if !yield(&Operation{graph: g, h: op}) {
				return
			}
		}
	}
}

// NumOperations returns the number of operations in the graph.
func (g *Graph) NumOperations() int {
	var count int
	for range g.Operations() {
		count++
	}
	return count
}

// SessionBuilder returns a builder of sessions for this graph, see NewSessionBuilder.
func (g *Graph) SessionBuilder() (*SessionBuilder, error) {
	return NewSessionBuilder(g)
}

// Finalize implements Finalizer. Sessions and session builders still alive on the graph are
// torn down first (errors are discarded), then the native graph is released.
//
// Operations, inputs and outputs of the graph report zero values afterwards.
func (g *Graph) Finalize() {
	if g == nil {
		return
	}
	g.mu.Lock()
	h, dependents := g.h, g.dependents
	g.h, g.dependents = nil, nil
	g.mu.Unlock()
	if h == nil {
		return
	}
	defer runtime.KeepAlive(g)
	if len(dependents) > 0 {
		klog.V(1).Infof("tf: finalizing graph with %d session(s) or session builder(s) still alive", len(dependents))
	}
	for d := range dependents {
		d.teardown()
	}
	g.rt.api.DeleteGraph(h)
}
