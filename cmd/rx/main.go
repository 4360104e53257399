// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command rx is the RX Engine handler binary: it receives UDP datagrams,
// reassembles application messages, and forwards them over an outbound
// local stream.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/rx"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/stream"
)

var flags struct {
	socketPath   string
	udpListen    string
	statsAddr    string
	syslogAddr   string
	logLevel     string
	name         string
	ringCapacity int
}

var rootCmd = &cobra.Command{
	Use:   "rx",
	Short: "receive and reassemble UDP datagrams, forwarding records to a local stream",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.socketPath, "socket_path", "", "rendezvous path to write records to (required)")
	f.StringVar(&flags.udpListen, "udp-listen", "", "UDP endpoint to listen on (required)")
	f.StringVar(&flags.statsAddr, "stats-addr", "127.0.0.1:8125", "statsd collector address")
	f.StringVar(&flags.syslogAddr, "syslog-addr", "", "syslog collector address, empty to disable")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level")
	f.StringVar(&flags.name, "name", "rx", "process name, used as log field and statsd prefix")
	f.IntVar(&flags.ringCapacity, "ring-capacity", 1<<20, "ring arena capacity in bytes")
	rootCmd.MarkFlagRequired("socket_path")
	rootCmd.MarkFlagRequired("udp-listen")
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
		return fmt.Errorf("rx: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	statsHandler := stats.NewHandler()
	statsClient, err := stats.NewClient(flags.statsAddr, flags.name, statsHandler)
	if err != nil {
		logging.Fatal(logger, "rx: build stats client", err)
		return nil
	}
	defer statsClient.Close()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	r := ring.New(flags.ringCapacity)
	engine, err := rx.New(flags.udpListen, r, statsHandler, logger)
	if err != nil {
		logging.Fatal(logger, "rx: build engine", err)
		return nil
	}
	defer engine.Close()

	writer, err := stream.ListenWriter(flags.socketPath)
	if err != nil {
		logging.Fatal(logger, "rx: listen on rendezvous socket", err)
		return nil
	}
	defer writer.Close()
	bufWriter := stream.NewBufferedWriter(writer, r)

	// The engine's own Run returns (without error) once a Shutdown sentinel
	// arrives; runCtx/cancelRun let that drain the other two workers instead
	// of leaving them blocked until the process signal fires.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return statsClient.Run(gctx) })
	g.Go(func() error { return bufWriter.Run(gctx) })
	g.Go(func() error {
		defer cancelRun()
		return engine.Run(gctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "rx: worker failed", err)
	}
	return nil
}
