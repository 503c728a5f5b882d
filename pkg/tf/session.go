// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"runtime"
	"sync"

	"github.com/gomlx/gotf/pkg/native"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// sessionOptions owns the native session options of a SessionBuilder.
type sessionOptions struct {
	mu sync.Mutex
	rt *Runtime
	h  native.Handle
}

func (o *sessionOptions) teardown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.h == nil {
		return
	}
	o.rt.api.DeleteSessionOptions(o.h)
	o.h = nil
}

// sessionHandle owns a native session, shared by a Session and the ClosedSession it turns into.
type sessionHandle struct {
	mu     sync.Mutex
	rt     *Runtime
	h      native.Handle
	closed bool
}

// teardown closes the session if still open, and deletes it. Errors are logged and discarded.
func (s *sessionHandle) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.h == nil {
		return
	}
	if !s.closed {
		if err := s.close(); err != nil {
			klog.V(1).Infof("tf: discarding error closing session during teardown: %v", err)
		}
	}
	if err := s.delete(); err != nil {
		klog.V(1).Infof("tf: discarding error deleting session during teardown: %v", err)
	}
}

// close calls the native close. Must be called with s.mu held.
func (s *sessionHandle) close() error {
	err := withStatus(s.rt, func(status native.Handle) {
		s.rt.api.CloseSession(s.h, status)
	})
	if err == nil {
		s.closed = true
	}
	return err
}

// delete calls the native delete: the handle is gone even if it returns an error.
// Must be called with s.mu held.
func (s *sessionHandle) delete() error {
	err := withStatus(s.rt, func(status native.Handle) {
		s.rt.api.DeleteSession(s.h, status)
	})
	s.h = nil
	return err
}

// SessionBuilder holds the native session options used to create a Session for a Graph.
// It is consumed by Build.
type SessionBuilder struct {
	graph   *Graph
	options *sessionOptions
}

// NewSessionBuilder creates the native session options for a session on the given graph.
func NewSessionBuilder(g *Graph) (*SessionBuilder, error) {
	if g.IsNil() {
		return nil, ErrGraphFinalized
	}
	h := g.rt.api.NewSessionOptions()
	if h == nil {
		return nil, errors.WithMessage(ErrObjectCreationFailure, "TF_NewSessionOptions")
	}
	options := &sessionOptions{rt: g.rt, h: h}
	if err := g.track(options); err != nil {
		options.teardown()
		return nil, err
	}
	b := &SessionBuilder{graph: g, options: options}
	RegisterFinalizer(b)
	return b, nil
}

// Graph the sessions are built for.
func (b *SessionBuilder) Graph() *Graph {
	return b.graph
}

// IsNil returns whether the builder was consumed or finalized.
func (b *SessionBuilder) IsNil() bool {
	return b == nil || b.options == nil
}

// Build consumes the builder and creates an open Session on its graph.
// The session options are released whether it succeeds or not.
func (b *SessionBuilder) Build() (*Session, error) {
	if b.IsNil() {
		return nil, ErrConsumed
	}
	g, options := b.graph, b.options
	b.options = nil
	unregisterFinalizer(b)
	defer func() {
		options.teardown()
		g.forget(options)
	}()

	graphH := g.handle()
	if graphH == nil || options.h == nil {
		return nil, ErrGraphFinalized
	}
	var h native.Handle
	err := withStatus(g.rt, func(status native.Handle) {
		h = g.rt.api.NewSession(graphH, options.h, status)
	})
	if err != nil {
		if h != nil {
			klog.Warningf("tf: native runtime %q returned a session along with error %v, deleting it", g.rt.Name(), err)
			(&sessionHandle{rt: g.rt, h: h}).teardown()
		}
		return nil, err
	}
	if h == nil {
		return nil, errors.WithMessage(ErrObjectCreationFailure, "TF_NewSession")
	}
	sh := &sessionHandle{rt: g.rt, h: h}
	if err := g.track(sh); err != nil {
		sh.teardown()
		return nil, err
	}
	s := &Session{graph: g, s: sh}
	RegisterFinalizer(s)
	return s, nil
}

// Finalize implements Finalizer, releasing the session options without building a Session.
func (b *SessionBuilder) Finalize() {
	if b.IsNil() {
		return
	}
	defer runtime.KeepAlive(b)
	options := b.options
	b.options = nil
	options.teardown()
	b.graph.forget(options)
}

// Session is an open native session on a Graph.
//
// Close moves it to a ClosedSession. A Session finalized (explicitly or by the GC) without
// being closed is closed and deleted, and errors are discarded.
type Session struct {
	graph *Graph
	s     *sessionHandle
}

// Graph the session was created on.
func (s *Session) Graph() *Graph {
	return s.graph
}

// IsNil returns whether the session was consumed by Close or finalized.
func (s *Session) IsNil() bool {
	return s == nil || s.s == nil
}

// Close consumes the Session and closes the native session.
//
// On success the returned ClosedSession owns the native session, to be deleted.
// On failure the native session is deleted right away, and the error of the close returned.
func (s *Session) Close() (*ClosedSession, error) {
	if s.IsNil() {
		return nil, ErrConsumed
	}
	sh := s.s
	s.s = nil
	unregisterFinalizer(s)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.h == nil {
		// Torn down by Graph.Finalize.
		return nil, ErrGraphFinalized
	}
	if err := sh.close(); err != nil {
		if err2 := sh.delete(); err2 != nil {
			klog.V(1).Infof("tf: discarding error deleting session after failed close: %v", err2)
		}
		s.graph.forget(sh)
		return nil, err
	}
	cs := &ClosedSession{graph: s.graph, s: sh}
	RegisterFinalizer(cs)
	return cs, nil
}

// Finalize implements Finalizer: it closes and deletes the native session, discarding errors.
func (s *Session) Finalize() {
	if s.IsNil() {
		return
	}
	sh := s.s
	s.s = nil
	sh.teardown()
	s.graph.forget(sh)
}

// ClosedSession is a closed native session, waiting to be deleted.
//
// If finalized (explicitly or by the GC) before Delete, the native session is deleted and
// errors are discarded.
type ClosedSession struct {
	graph *Graph
	s     *sessionHandle
}

// Graph the session was created on.
func (cs *ClosedSession) Graph() *Graph {
	return cs.graph
}

// IsNil returns whether the session was consumed by Delete or finalized.
func (cs *ClosedSession) IsNil() bool {
	return cs == nil || cs.s == nil
}

// Delete consumes the ClosedSession and deletes the native session. The native session is
// gone even if an error is returned.
func (cs *ClosedSession) Delete() error {
	if cs.IsNil() {
		return ErrConsumed
	}
	sh := cs.s
	cs.s = nil
	unregisterFinalizer(cs)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.h == nil {
		return ErrGraphFinalized
	}
	err := sh.delete()
	cs.graph.forget(sh)
	return err
}

// Finalize implements Finalizer: it deletes the native session, discarding errors.
func (cs *ClosedSession) Finalize() {
	if cs.IsNil() {
		return
	}
	sh := cs.s
	cs.s = nil
	sh.teardown()
	cs.graph.forget(sh)
}
