// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// InstallPanicHook returns a function to be deferred at the top of main: it
// recovers a panic, logs the chained message to every configured core, and
// exits the process with code 1 so the supervisor (or a container's
// `--restart always` policy) restarts it. It is a no-op if no panic is in
// flight. Success never exits.
func InstallPanicHook(logger *zap.Logger) func() {
	return func() {
		r := recover()
		if r == nil {
			return
		}
		msg := fmt.Sprintf("%v", r)
		logger.Error("fatal: unrecovered panic", zap.String("panic", msg))
		fmt.Fprintln(os.Stderr, "fatal:", msg)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// Fatal logs err as a fatal, chained error to every configured core and
// exits with code 1, for worker errors returned (rather than panicked)
// through an errgroup.
func Fatal(logger *zap.Logger, context string, err error) {
	logger.Error("fatal: "+context, zap.Error(err))
	fmt.Fprintf(os.Stderr, "fatal: %s: %v\n", context, err)
	_ = logger.Sync()
	os.Exit(1)
}
