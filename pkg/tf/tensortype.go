// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import "github.com/gomlx/gotf/pkg/native"

// TensorType is the closed set of Go types a Tensor can hold. Each maps to exactly one
// native data type, see DataTypeOf.
//
// The types are listed exactly (no `~`), so named types like `type Celsius float32` are rejected
// at compile time.
type TensorType interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// DataTypeOf returns the native data type for T.
func DataTypeOf[T TensorType]() native.DataType {
	var t T
	switch any(t).(type) {
	case float32:
		return native.Float
	case float64:
		return native.Double
	case int8:
		return native.Int8
	case int16:
		return native.Int16
	case int32:
		return native.Int32
	case int64:
		return native.Int64
	case uint8:
		return native.Uint8
	case uint16:
		return native.Uint16
	case uint32:
		return native.Uint32
	case uint64:
		return native.Uint64
	}
	return native.InvalidDataType
}
