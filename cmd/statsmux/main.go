// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command statsmux is the Stats Multiplexer handler binary: it fans out
// statsd datagrams received on one port to a fixed set of collector
// addresses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/statsmux"
)

var flags struct {
	listenPort int
	dstAddrs   []string
	syslogAddr string
	logLevel   string
	name       string
}

var rootCmd = &cobra.Command{
	Use:   "statsmux",
	Short: "fan out statsd datagrams to a fixed set of collectors",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.IntVar(&flags.listenPort, "listen-port", 8125, "UDP port to listen on")
	f.StringSliceVar(&flags.dstAddrs, "dst", nil, "collector host:port, may be repeated (required)")
	f.StringVar(&flags.syslogAddr, "syslog-addr", "", "syslog collector address, empty to disable")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level")
	f.StringVar(&flags.name, "name", "statsmux", "process name, used as a log field")
	rootCmd.MarkFlagRequired("dst")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := logging.New(logging.ParseLevel(flags.logLevel), flags.syslogAddr, flags.name)
	if err != nil {
		return fmt.Errorf("statsmux: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	mux, err := statsmux.New(flags.listenPort, flags.dstAddrs, logger)
	if err != nil {
		logging.Fatal(logger, "statsmux: build multiplexer", err)
		return nil
	}
	defer mux.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mux.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "statsmux: worker failed", err)
	}
	return nil
}
