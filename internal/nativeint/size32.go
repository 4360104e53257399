//go:build 386 || arm || mips || mipsle

// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package nativeint

// Size returns the byte width of the native unsigned integer type on
// common 32-bit ports.
func Size() int { return 4 }
