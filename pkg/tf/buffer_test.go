// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf_test

import (
	"testing"

	"github.com/gomlx/gotf/pkg/tf"
	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	rt, sim := newRuntime(t)
	data := []byte("serialized graph")

	view := tf.NewBufferView(rt, data)
	assert.Equal(t, len(data), view.Len())
	copied := tf.NewBufferCopy(rt, data)
	assert.Equal(t, len(data), copied.Len())
	empty := tf.NewBufferView(rt, nil)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 3, sim.Live().Buffers)

	for _, b := range []*tf.Buffer{view, copied, empty} {
		b.Finalize()
		b.Finalize()
		assert.True(t, b.IsNil())
		assert.Equal(t, 0, b.Len())
	}
	assert.Zero(t, sim.Live().Buffers)
}
