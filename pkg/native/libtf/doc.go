// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package libtf implements the native function table over the TensorFlow C library
// (`tensorflow/c/c_api.h`), and registers it under the name "tensorflow".
//
// The implementation is only compiled with the "tensorflow" build tag, since it requires the
// TensorFlow C library and headers installed (e.g.: in /usr/local/lib and /usr/local/include):
//
//	go build -tags tensorflow ./...
//
// Without the tag the package is empty, and importing it registers nothing.
package libtf

// Name of the runtime in the native registry.
const Name = "tensorflow"
