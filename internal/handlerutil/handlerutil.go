// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Package handlerutil collects the small pieces of process-lifecycle
// boilerplate every cmd/* handler binary repeats: a cancellable context tied
// to SIGINT/SIGTERM, matching the WaitInterrupted idiom used elsewhere in
// the corpus for errgroup-coordinated binaries.
package handlerutil

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context canceled on SIGINT or SIGTERM, and the
// stop function that releases the signal notification. Callers should defer
// the returned function.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
