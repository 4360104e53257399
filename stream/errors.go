// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package stream

import "errors"

// ErrTooLong is returned by Reader.ReadRecord when a decoded length prefix
// exceeds the configured maximum record length.
var ErrTooLong = errors.New("stream: record exceeds maximum length")
