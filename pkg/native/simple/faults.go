// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package simple

import "github.com/gomlx/gotf/pkg/native"

// Entry names a native entry point that can be made to fail with InjectFault.
type Entry string

// Entry points accepting faults. Allocation entries (NewStatus, AllocateTensor,
// NewSessionOptions) fail by returning nil, the others by reporting the fault's status.
const (
	EntryNewStatus           Entry = "NewStatus"
	EntryAllocateTensor      Entry = "AllocateTensor"
	EntryNewSessionOptions   Entry = "NewSessionOptions"
	EntryGraphImportGraphDef Entry = "GraphImportGraphDef"
	EntryNewSession          Entry = "NewSession"
	EntryCloseSession        Entry = "CloseSession"
	EntryDeleteSession       Entry = "DeleteSession"
)

type fault struct {
	code native.Code
	msg  string
}

// InjectFault makes the next call to entry fail with the given code and message.
// Faults are consumed by the call they affect.
func (r *Runtime) InjectFault(entry Entry, code native.Code, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[entry] = fault{code: code, msg: msg}
}

// takeFault consumes the fault pending for entry, if any. Must be called with r.mu held.
func (r *Runtime) takeFault(entry Entry) (f fault, found bool) {
	f, found = r.faults[entry]
	if found {
		delete(r.faults, entry)
	}
	return
}
