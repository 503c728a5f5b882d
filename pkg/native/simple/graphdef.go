// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simple

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// nodeDef holds the fields of tensorflow.NodeDef the runtime uses. Everything else
// (attr, experimental_debug_info, ...) is skipped.
type nodeDef struct {
	name, op, device string
	inputs           []string
}

// walkFields calls fn for each field of the serialized message b. value is only set for
// length-delimited fields.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, value []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return errors.Wrapf(protowire.ParseError(n), "field %d", num)
		}
		var value []byte
		if typ == protowire.BytesType {
			value, _ = protowire.ConsumeBytes(b)
		}
		if err := fn(num, typ, value); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// parseGraphDef decodes the nodes of a serialized tensorflow.GraphDef, in order.
func parseGraphDef(b []byte) ([]nodeDef, error) {
	var nodes []nodeDef
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, value []byte) error {
		if num != 1 { // GraphDef.node
			return nil
		}
		if typ != protowire.BytesType {
			return errors.Errorf("GraphDef.node has wire type %d", typ)
		}
		node, err := parseNodeDef(value)
		if err != nil {
			return errors.WithMessagef(err, "GraphDef.node[%d]", len(nodes))
		}
		nodes = append(nodes, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func parseNodeDef(b []byte) (node nodeDef, err error) {
	err = walkFields(b, func(num protowire.Number, typ protowire.Type, value []byte) error {
		var target *string
		switch num {
		case 1:
			target = &node.name
		case 2:
			target = &node.op
		case 3:
			if typ != protowire.BytesType {
				return errors.Errorf("NodeDef.input has wire type %d", typ)
			}
			node.inputs = append(node.inputs, string(value))
			return nil
		case 4:
			target = &node.device
		default:
			return nil
		}
		if typ != protowire.BytesType {
			return errors.Errorf("NodeDef field %d has wire type %d", num, typ)
		}
		*target = string(value)
		return nil
	})
	return
}

// splitInput parses a NodeDef input: "name", "name:index" or "^name" for control inputs.
func splitInput(input string) (name string, index int, control bool, err error) {
	if strings.HasPrefix(input, "^") {
		return input[1:], -1, true, nil
	}
	name = input
	if colon := strings.LastIndexByte(input, ':'); colon >= 0 {
		name = input[:colon]
		index, err = strconv.Atoi(input[colon+1:])
		if err != nil || index < 0 {
			return "", 0, false, errors.Errorf("malformed input %q", input)
		}
	}
	if name == "" {
		return "", 0, false, errors.Errorf("malformed input %q", input)
	}
	return
}
