// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphdefs serializes small TensorFlow GraphDef protos, to be used in tests.
//
// Only the fields needed to describe nodes are written: GraphDef.node, and NodeDef's name,
// op, input, device and attr. The output is accepted by TensorFlow's own parser.
package graphdefs

import (
	"math"
	"slices"
	"strings"

	"github.com/gomlx/gotf/pkg/native"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from tensorflow/core/framework/{graph,node_def,attr_value,tensor}.proto.
const (
	graphDefNode = 1

	nodeDefName   = 1
	nodeDefOp     = 2
	nodeDefInput  = 3
	nodeDefDevice = 4
	nodeDefAttr   = 5

	mapEntryKey   = 1
	mapEntryValue = 2

	attrValueType   = 6
	attrValueTensor = 8

	tensorProtoDType    = 1
	tensorProtoShape    = 2
	tensorProtoFloatVal = 5
)

// Attr is one serialized entry of NodeDef.attr.
type Attr struct {
	Key   string
	value []byte
}

// TypeAttr is an attribute holding a data type, like the "dtype" of a Placeholder or the "T" of an Add.
func TypeAttr(key string, dtype native.DataType) Attr {
	var v []byte
	v = protowire.AppendTag(v, attrValueType, protowire.VarintType)
	v = protowire.AppendVarint(v, uint64(dtype))
	return Attr{Key: key, value: v}
}

// FloatScalarAttr is an attribute holding a scalar float32 tensor, like the "value" of a Const.
func FloatScalarAttr(key string, value float32) Attr {
	var tensor []byte
	tensor = protowire.AppendTag(tensor, tensorProtoDType, protowire.VarintType)
	tensor = protowire.AppendVarint(tensor, uint64(native.Float))
	tensor = protowire.AppendTag(tensor, tensorProtoShape, protowire.BytesType)
	tensor = protowire.AppendBytes(tensor, nil)
	tensor = protowire.AppendTag(tensor, tensorProtoFloatVal, protowire.BytesType)
	tensor = protowire.AppendBytes(tensor, protowire.AppendFixed32(nil, math.Float32bits(value)))

	var v []byte
	v = protowire.AppendTag(v, attrValueTensor, protowire.BytesType)
	v = protowire.AppendBytes(v, tensor)
	return Attr{Key: key, value: v}
}

// Node describes one NodeDef.
type Node struct {
	Name, Op, Device string

	// Inputs are "name", "name:index" or, for control inputs, "^name".
	Inputs []string

	Attrs []Attr
}

// Encode serializes the nodes as a GraphDef, in the given order.
func Encode(nodes ...Node) []byte {
	var graph []byte
	for _, node := range nodes {
		graph = protowire.AppendTag(graph, graphDefNode, protowire.BytesType)
		graph = protowire.AppendBytes(graph, encodeNode(node))
	}
	return graph
}

func encodeNode(node Node) []byte {
	var b []byte
	appendString := func(num protowire.Number, s string) {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	appendString(nodeDefName, node.Name)
	appendString(nodeDefOp, node.Op)
	for _, input := range node.Inputs {
		appendString(nodeDefInput, input)
	}
	if node.Device != "" {
		appendString(nodeDefDevice, node.Device)
	}
	attrs := slices.Clone(node.Attrs)
	slices.SortFunc(attrs, func(a, b Attr) int { return strings.Compare(a.Key, b.Key) })
	for _, attr := range attrs {
		var entry []byte
		entry = protowire.AppendTag(entry, mapEntryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, attr.Key)
		entry = protowire.AppendTag(entry, mapEntryValue, protowire.BytesType)
		entry = protowire.AppendBytes(entry, attr.value)
		b = protowire.AppendTag(b, nodeDefAttr, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// AdditionNodes are the nodes of the "addition" sample graph: y = x + 1.
//
//	x:   Placeholder
//	one: Const
//	add: Add(x, one)
//	y:   Identity(add)
func AdditionNodes() []Node {
	return []Node{
		{Name: "x", Op: "Placeholder", Attrs: []Attr{TypeAttr("dtype", native.Float)}},
		{Name: "one", Op: "Const", Attrs: []Attr{TypeAttr("dtype", native.Float), FloatScalarAttr("value", 1)}},
		{Name: "add", Op: "Add", Inputs: []string{"x", "one"}, Attrs: []Attr{TypeAttr("T", native.Float)}},
		{Name: "y", Op: "Identity", Inputs: []string{"add"}, Attrs: []Attr{TypeAttr("T", native.Float)}},
	}
}

// Addition returns the serialized "addition" sample graph, see AdditionNodes.
func Addition() []byte {
	return Encode(AdditionNodes()...)
}
