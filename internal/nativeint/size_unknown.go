//go:build !amd64 && !arm64 && !riscv64 && !ppc64 && !ppc64le && !mips64 && !mips64le && !s390x && !loong64 && !wasm && !386 && !arm && !mips && !mipsle

// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package nativeint

import "unsafe"

// Size returns the byte width of the native unsigned integer type on
// otherwise-unsupported ports, taken from unsafe.Sizeof(uintptr(0)) at
// compile time.
func Size() int { return int(unsafe.Sizeof(uintptr(0))) }
