// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/gomlx/gotf/internal/graphdefs"
	"github.com/gomlx/gotf/pkg/native/simple"
	"github.com/gomlx/gotf/pkg/tf"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	rt, sim := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))
	defer g.Finalize()

	builder := must.M1(g.SessionBuilder())
	assert.Same(t, g, builder.Graph())
	assert.Equal(t, 1, sim.Live().SessionOptions)

	session := must.M1(builder.Build())
	assert.True(t, builder.IsNil())
	assert.Zero(t, sim.Live().SessionOptions)
	assert.Equal(t, 1, sim.Live().Sessions)
	assert.Same(t, g, session.Graph())

	closed := must.M1(session.Close())
	assert.True(t, session.IsNil())
	assert.False(t, closed.IsNil())
	assert.Same(t, g, closed.Graph())
	assert.Equal(t, 1, sim.Live().Sessions)

	require.NoError(t, closed.Delete())
	assert.True(t, closed.IsNil())
	assert.Zero(t, sim.Live().Sessions)
}

func TestSessionConsumed(t *testing.T) {
	rt, _ := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))
	defer g.Finalize()

	builder := must.M1(tf.NewSessionBuilder(g))
	session := must.M1(builder.Build())
	_, err := builder.Build()
	require.ErrorIs(t, err, tf.ErrConsumed)

	closed := must.M1(session.Close())
	_, err = session.Close()
	require.ErrorIs(t, err, tf.ErrConsumed)

	require.NoError(t, closed.Delete())
	require.ErrorIs(t, closed.Delete(), tf.ErrConsumed)

	// Finalizing consumed values is a no-op.
	builder.Finalize()
	session.Finalize()
	closed.Finalize()
}

func TestSessionFinalize(t *testing.T) {
	rt, sim := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))
	defer g.Finalize()

	builder := must.M1(g.SessionBuilder())
	builder.Finalize()
	builder.Finalize()
	assert.Zero(t, sim.Live().SessionOptions)
	_, err := builder.Build()
	require.ErrorIs(t, err, tf.ErrConsumed)

	session := must.M1(must.M1(g.SessionBuilder()).Build())
	session.Finalize()
	assert.Zero(t, sim.Live().Sessions)
	_, err = session.Close()
	require.ErrorIs(t, err, tf.ErrConsumed)

	closed := must.M1(must.M1(must.M1(g.SessionBuilder()).Build()).Close())
	closed.Finalize()
	assert.Zero(t, sim.Live().Sessions)
	require.ErrorIs(t, closed.Delete(), tf.ErrConsumed)
}

func TestSessionFaults(t *testing.T) {
	rt, sim := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))
	defer g.Finalize()

	sim.InjectFault(simple.EntryNewSessionOptions, tf.OK, "")
	_, err := g.SessionBuilder()
	require.ErrorIs(t, err, tf.ErrObjectCreationFailure)

	sim.InjectFault(simple.EntryNewSession, tf.Internal, "no devices")
	_, err = must.M1(g.SessionBuilder()).Build()
	require.ErrorIs(t, err, &tf.Error{Code: tf.Internal})
	assert.Zero(t, sim.Live().SessionOptions)
	assert.Zero(t, sim.Live().Sessions)

	// A failed close deletes the session right away.
	session := must.M1(must.M1(g.SessionBuilder()).Build())
	sim.InjectFault(simple.EntryCloseSession, tf.Aborted, "close failed")
	_, err = session.Close()
	require.ErrorIs(t, err, &tf.Error{Code: tf.Aborted, Message: "close failed"})
	assert.True(t, session.IsNil())
	assert.Zero(t, sim.Live().Sessions)

	// A failed delete still releases the session.
	closed := must.M1(must.M1(must.M1(g.SessionBuilder()).Build()).Close())
	sim.InjectFault(simple.EntryDeleteSession, tf.Unavailable, "delete failed")
	err = closed.Delete()
	assert.Equal(t, tf.Unavailable, tf.CodeOf(err))
	assert.Zero(t, sim.Live().Sessions)

	// Errors during teardown are discarded.
	session = must.M1(must.M1(g.SessionBuilder()).Build())
	sim.InjectFault(simple.EntryCloseSession, tf.Aborted, "close failed")
	sim.InjectFault(simple.EntryDeleteSession, tf.Aborted, "delete failed")
	session.Finalize()
	assert.Zero(t, sim.Live().Sessions)
}

func TestGraphFinalizeWithSessions(t *testing.T) {
	rt, sim := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))

	builder := must.M1(g.SessionBuilder())
	session := must.M1(must.M1(g.SessionBuilder()).Build())
	closed := must.M1(must.M1(must.M1(g.SessionBuilder()).Build()).Close())
	assert.Equal(t, 1, sim.Live().SessionOptions)
	assert.Equal(t, 2, sim.Live().Sessions)

	// The graph releases everything created on it first.
	g.Finalize()
	assert.Zero(t, sim.Live().Total(), "live: %s", sim.Live())

	_, err := builder.Build()
	require.ErrorIs(t, err, tf.ErrGraphFinalized)
	_, err = session.Close()
	require.ErrorIs(t, err, tf.ErrGraphFinalized)
	require.ErrorIs(t, closed.Delete(), tf.ErrGraphFinalized)
}

// TestGarbageCollection drops every value without finalizing it, and checks that the
// garbage collector releases everything, in a valid order.
func TestGarbageCollection(t *testing.T) {
	rt, sim := newRuntime(t)
	for range 20 {
		g := must.M1(rt.ImportGraph(graphdefs.Addition()))
		_ = must.M1(g.SessionBuilder())
		_ = must.M1(must.M1(g.SessionBuilder()).Build())
		_ = must.M1(must.M1(must.M1(g.SessionBuilder()).Build()).Close())
		_ = must.M1(tf.FromSliceWith(rt, []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6}))
		_ = tf.NewBufferCopy(rt, []byte("some bytes"))
	}
	require.Eventually(t, func() bool {
		runtime.GC()
		return sim.Live().Total() == 0
	}, 10*time.Second, 10*time.Millisecond, "native objects not collected")
}

func TestNewStatusFailurePanics(t *testing.T) {
	rt, sim := newRuntime(t)
	g := must.M1(rt.ImportGraph(graphdefs.Addition()))
	defer g.Finalize()
	builder := must.M1(g.SessionBuilder())

	sim.InjectFault(simple.EntryNewStatus, tf.OK, "")
	require.Panics(t, func() { _, _ = builder.Build() })
	assert.Zero(t, sim.Live().SessionOptions)
}
