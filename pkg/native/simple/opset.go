// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simple

// opDef is the arity of an op type. Variadic is -1.
type opDef struct {
	numInputs, numOutputs int
}

const variadic = -1

// opSet lists the op types the runtime accepts on import. Importing any other op type
// fails with NotFound, as TensorFlow does for unregistered ops.
var opSet = map[string]opDef{
	"NoOp":        {0, 0},
	"Placeholder": {0, 1},
	"Const":       {0, 1},
	"VariableV2":  {0, 1},
	"Identity":    {1, 1},
	"Neg":         {1, 1},
	"Relu":        {1, 1},
	"Sigmoid":     {1, 1},
	"Tanh":        {1, 1},
	"Softmax":     {1, 1},
	"Shape":       {1, 1},
	"Add":         {2, 1},
	"AddV2":       {2, 1},
	"Sub":         {2, 1},
	"Mul":         {2, 1},
	"RealDiv":     {2, 1},
	"MatMul":      {2, 1},
	"Reshape":     {2, 1},
	"Assign":      {2, 1},
	"Unique":      {1, 2},
	"TopKV2":      {2, 2},
	"AddN":        {variadic, 1},
	"Pack":        {variadic, 1},
}

// RegisterOp adds or replaces an op type accepted on import. numInputs can be -1 for variadic ops.
// It is not safe to call concurrently with imports.
func RegisterOp(opType string, numInputs, numOutputs int) {
	opSet[opType] = opDef{numInputs: numInputs, numOutputs: numOutputs}
}
