// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tf

import (
	"fmt"
	"sync"

	"github.com/gomlx/gotf/pkg/native"
	"github.com/pkg/errors"
)

// Runtime is the native runtime every object of this package is created with.
//
// Objects from different Runtime values must not be mixed.
type Runtime struct {
	api native.API
}

// WithAPI returns a Runtime calling the given native function table.
func WithAPI(api native.API) *Runtime {
	return &Runtime{api: api}
}

// NewRuntime returns the Runtime for the registered native runtime with the given name.
// If name is empty, it uses native.Default.
func NewRuntime(name string) (*Runtime, error) {
	var api native.API
	var err error
	if name == "" {
		api, err = native.Default()
	} else {
		api, err = native.Get(name)
	}
	if err != nil {
		return nil, err
	}
	return WithAPI(api), nil
}

var (
	muDefault      sync.Mutex
	defaultRuntime *Runtime
)

// DefaultRuntime returns the Runtime used by the package level functions. It is selected
// the first time it is successfully created, see NewRuntime.
func DefaultRuntime() (*Runtime, error) {
	muDefault.Lock()
	defer muDefault.Unlock()
	if defaultRuntime != nil {
		return defaultRuntime, nil
	}
	rt, err := NewRuntime("")
	if err != nil {
		return nil, errors.WithMessage(err, "tf: no default runtime")
	}
	defaultRuntime = rt
	return rt, nil
}

// Name of the native runtime.
func (rt *Runtime) Name() string {
	return rt.api.Name()
}

// Version of the native runtime.
func (rt *Runtime) Version() string {
	return rt.api.Version()
}

// API returns the underlying native function table.
func (rt *Runtime) API() native.API {
	return rt.api
}

func (rt *Runtime) String() string {
	return fmt.Sprintf("%s (version %s)", rt.Name(), rt.Version())
}

// Version of the default native runtime, or "" if there is none.
func Version() string {
	rt, err := DefaultRuntime()
	if err != nil {
		return ""
	}
	return rt.Version()
}
