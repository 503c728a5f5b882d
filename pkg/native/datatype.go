// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package native

import "fmt"

// DataType is the native element type tag of a tensor.
//
// Values are a 1:1 mapping of the TF_DataType C enum. Only the numeric types the safe
// layer can hold are listed.
type DataType int32

const (
	InvalidDataType DataType = 0
	Float           DataType = 1
	Double          DataType = 2
	Int32           DataType = 3
	Uint8           DataType = 4
	Int16           DataType = 5
	Int8            DataType = 6
	Int64           DataType = 9
	Uint16          DataType = 17
	Uint32          DataType = 22
	Uint64          DataType = 23
)

// Size returns the size in bytes of one element, or 0 for unknown data types.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Int64, Uint64, Double:
		return 8
	default:
		return 0
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float:
		return "float32"
	case Double:
		return "float64"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return fmt.Sprintf("DataType(%d)", int32(dt))
	}
}
