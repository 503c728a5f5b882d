// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package native

import (
	"os"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultRuntimeEnv is the environment variable that selects the runtime returned by Default.
const DefaultRuntimeEnv = "GOTF_RUNTIME"

var (
	// RuntimePreferences lists the runtimes Default picks first, in order, if registered.
	RuntimePreferences = []string{"tensorflow"}

	// AvoidRuntime is only picked by Default if it is the only one registered.
	AvoidRuntime = "simple"
)

var registry = make(map[string]API)

// Register makes api available by its Name. Registering the same name twice replaces
// the previous implementation.
func Register(api API) {
	registry[api.Name()] = api
}

// Get returns the registered implementation with the given name.
func Get(name string) (API, error) {
	api, found := registry[name]
	if !found {
		return nil, errors.Errorf("native runtime %q not registered (registered: %v), maybe a blank import is missing", name, Names())
	}
	return api, nil
}

// Names returns the sorted names of the registered runtimes.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default returns the default runtime among the registered ones.
//
// The choice can be forced with the environment variable GOTF_RUNTIME. Otherwise, it picks the first
// of RuntimePreferences registered, then anything other than AvoidRuntime, and AvoidRuntime last.
func Default() (API, error) {
	if name, found := os.LookupEnv(DefaultRuntimeEnv); found && name != "" {
		klog.V(1).Infof("native runtime %q selected by $%s", name, DefaultRuntimeEnv)
		return Get(name)
	}
	names := Names()
	if len(names) == 0 {
		return nil, errors.New("no native runtime registered, import github.com/gomlx/gotf/pkg/native/libtf (build tag \"tensorflow\") or github.com/gomlx/gotf/pkg/native/simple")
	}
	pick := func(name string) (API, error) {
		klog.V(1).Infof("native runtime %q selected from %v", name, names)
		return registry[name], nil
	}
	for _, name := range RuntimePreferences {
		if _, found := registry[name]; found {
			return pick(name)
		}
	}
	for _, name := range names {
		if name != AvoidRuntime {
			return pick(name)
		}
	}
	return pick(names[0])
}
