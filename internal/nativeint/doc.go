// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package nativeint provides the native machine word size in bytes.
//
// Implementation is architecture-specific via build tags where commonly known,
// and falls back to unsafe.Sizeof(uintptr(0)) elsewhere.
package nativeint
