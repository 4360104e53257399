// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package nativeint_test

import (
	"testing"

	"github.com/opendiode/godiode/internal/nativeint"
)

func TestSizeIsPlausible(t *testing.T) {
	n := nativeint.Size()
	if n != 4 && n != 8 {
		t.Fatalf("Size() = %d, want 4 or 8", n)
	}
}
