//go:build amd64 || arm64 || riscv64 || ppc64 || ppc64le || mips64 || mips64le || s390x || loong64 || wasm

// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package nativeint

// Size returns the byte width of the native unsigned integer type on
// common 64-bit ports.
func Size() int { return 8 }
