// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

//go:build tensorflow

package libtf

// #cgo LDFLAGS: -ltensorflow
// #include <stdlib.h>
// #include <tensorflow/c/c_api.h>
import "C"

import (
	"unsafe"

	"github.com/gomlx/gotf/pkg/native"
)

func init() {
	native.Register(Runtime{})
}

// Runtime implements native.API by calling the TensorFlow C library. It holds no state.
type Runtime struct{}

var _ native.API = Runtime{}

// Name implements native.API.
func (Runtime) Name() string { return Name }

// Version implements native.API.
func (Runtime) Version() string { return C.GoString(C.TF_Version()) }

// NewStatus implements native.API.
func (Runtime) NewStatus() native.Handle { return native.Handle(C.TF_NewStatus()) }

// DeleteStatus implements native.API.
func (Runtime) DeleteStatus(h native.Handle) { C.TF_DeleteStatus((*C.TF_Status)(h)) }

// GetCode implements native.API.
func (Runtime) GetCode(h native.Handle) native.Code {
	return native.Code(C.TF_GetCode((*C.TF_Status)(h)))
}

// Message implements native.API.
func (Runtime) Message(h native.Handle) string {
	return C.GoString(C.TF_Message((*C.TF_Status)(h)))
}

// NewBuffer implements native.API.
func (Runtime) NewBuffer() native.Handle { return native.Handle(C.TF_NewBuffer()) }

// NewBufferFromString implements native.API.
func (Runtime) NewBufferFromString(data []byte) native.Handle {
	return native.Handle(C.TF_NewBufferFromString(unsafe.Pointer(unsafe.SliceData(data)), C.size_t(len(data))))
}

// SetBufferData implements native.API. data must be C memory or pinned Go memory.
func (Runtime) SetBufferData(h native.Handle, data unsafe.Pointer, length int) {
	buf := (*C.TF_Buffer)(h)
	buf.data = data
	buf.length = C.size_t(length)
}

// DeleteBuffer implements native.API.
func (Runtime) DeleteBuffer(h native.Handle) { C.TF_DeleteBuffer((*C.TF_Buffer)(h)) }

// NewGraph implements native.API.
func (Runtime) NewGraph() native.Handle { return native.Handle(C.TF_NewGraph()) }

// DeleteGraph implements native.API.
func (Runtime) DeleteGraph(h native.Handle) { C.TF_DeleteGraph((*C.TF_Graph)(h)) }

// NewImportGraphDefOptions implements native.API.
func (Runtime) NewImportGraphDefOptions() native.Handle {
	return native.Handle(C.TF_NewImportGraphDefOptions())
}

// DeleteImportGraphDefOptions implements native.API.
func (Runtime) DeleteImportGraphDefOptions(h native.Handle) {
	C.TF_DeleteImportGraphDefOptions((*C.TF_ImportGraphDefOptions)(h))
}

// GraphImportGraphDef implements native.API.
func (Runtime) GraphImportGraphDef(graph, buffer, options, status native.Handle) {
	C.TF_GraphImportGraphDef((*C.TF_Graph)(graph), (*C.TF_Buffer)(buffer),
		(*C.TF_ImportGraphDefOptions)(options), (*C.TF_Status)(status))
}

// GraphOperationByName implements native.API.
func (Runtime) GraphOperationByName(graph native.Handle, name string) native.Handle {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return native.Handle(C.TF_GraphOperationByName((*C.TF_Graph)(graph), cName))
}

// GraphNextOperation implements native.API.
func (Runtime) GraphNextOperation(graph native.Handle, pos *int) native.Handle {
	cPos := C.size_t(*pos)
	op := C.TF_GraphNextOperation((*C.TF_Graph)(graph), &cPos)
	*pos = int(cPos)
	return native.Handle(op)
}

// OperationName implements native.API.
func (Runtime) OperationName(op native.Handle) string {
	return C.GoString(C.TF_OperationName((*C.TF_Operation)(op)))
}

// OperationOpType implements native.API.
func (Runtime) OperationOpType(op native.Handle) string {
	return C.GoString(C.TF_OperationOpType((*C.TF_Operation)(op)))
}

// OperationDevice implements native.API.
func (Runtime) OperationDevice(op native.Handle) string {
	return C.GoString(C.TF_OperationDevice((*C.TF_Operation)(op)))
}

// OperationNumInputs implements native.API.
func (Runtime) OperationNumInputs(op native.Handle) int {
	return int(C.TF_OperationNumInputs((*C.TF_Operation)(op)))
}

// OperationNumOutputs implements native.API.
func (Runtime) OperationNumOutputs(op native.Handle) int {
	return int(C.TF_OperationNumOutputs((*C.TF_Operation)(op)))
}

// AllocateTensor implements native.API.
func (Runtime) AllocateTensor(dtype native.DataType, dims []int64, length int) native.Handle {
	var cDims *C.int64_t
	if len(dims) > 0 {
		cDims = (*C.int64_t)(unsafe.Pointer(&dims[0]))
	}
	return native.Handle(C.TF_AllocateTensor(C.TF_DataType(dtype), cDims, C.int(len(dims)), C.size_t(length)))
}

// TensorData implements native.API.
func (Runtime) TensorData(tensor native.Handle) unsafe.Pointer {
	return C.TF_TensorData((*C.TF_Tensor)(tensor))
}

// DeleteTensor implements native.API.
func (Runtime) DeleteTensor(tensor native.Handle) { C.TF_DeleteTensor((*C.TF_Tensor)(tensor)) }

// NewSessionOptions implements native.API.
func (Runtime) NewSessionOptions() native.Handle { return native.Handle(C.TF_NewSessionOptions()) }

// DeleteSessionOptions implements native.API.
func (Runtime) DeleteSessionOptions(options native.Handle) {
	C.TF_DeleteSessionOptions((*C.TF_SessionOptions)(options))
}

// NewSession implements native.API.
func (Runtime) NewSession(graph, options, status native.Handle) native.Handle {
	return native.Handle(C.TF_NewSession((*C.TF_Graph)(graph), (*C.TF_SessionOptions)(options), (*C.TF_Status)(status)))
}

// CloseSession implements native.API.
func (Runtime) CloseSession(session, status native.Handle) {
	C.TF_CloseSession((*C.TF_Session)(session), (*C.TF_Status)(status))
}

// DeleteSession implements native.API.
func (Runtime) DeleteSession(session, status native.Handle) {
	C.TF_DeleteSession((*C.TF_Session)(session), (*C.TF_Status)(status))
}
