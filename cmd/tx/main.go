// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command tx is the TX Engine handler binary: it drains an inbound local
// stream into a ring and forwards records, fragmented and paced, to a fixed
// UDP peer.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/stream"
	"github.com/opendiode/godiode/tx"
)

const shutdownSentinelTimeout = 5 * time.Second

var flags struct {
	socketPath   string
	udpListen    string
	udpTarget    string
	statsAddr    string
	syslogAddr   string
	logLevel     string
	name         string
	ringCapacity int
	sendRate     float64
}

var rootCmd = &cobra.Command{
	Use:   "tx",
	Short: "forward records from a local stream to a fixed UDP peer, fragmented and paced",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.socketPath, "socket_path", "", "rendezvous path to read records from (required)")
	f.StringVar(&flags.udpListen, "udp-listen", ":0", "local UDP endpoint to send from")
	f.StringVar(&flags.udpTarget, "udp-target", "", "UDP peer to send to (required)")
	f.StringVar(&flags.statsAddr, "stats-addr", "127.0.0.1:8125", "statsd collector address")
	f.StringVar(&flags.syslogAddr, "syslog-addr", "", "syslog collector address, empty to disable")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level")
	f.StringVar(&flags.name, "name", "tx", "process name, used as log field and statsd prefix")
	f.IntVar(&flags.ringCapacity, "ring-capacity", 1<<20, "ring arena capacity in bytes")
	f.Float64Var(&flags.sendRate, "send-rate", 200, "packets per second sent, paced")
	rootCmd.MarkFlagRequired("socket_path")
	rootCmd.MarkFlagRequired("udp-target")
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
		return fmt.Errorf("tx: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	statsHandler := stats.NewHandler()
	statsClient, err := stats.NewClient(flags.statsAddr, flags.name, statsHandler)
	if err != nil {
		logging.Fatal(logger, "tx: build stats client", err)
		return nil
	}
	defer statsClient.Close()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	reader, err := stream.DialReader(ctx, flags.socketPath)
	if err != nil {
		logging.Fatal(logger, "tx: dial rendezvous socket", err)
		return nil
	}
	defer reader.Close()

	r := ring.New(flags.ringCapacity)
	bufReader := stream.NewBufferedReader(reader, r)

	engine, err := tx.New(flags.udpListen, flags.udpTarget, r, flags.sendRate, statsHandler, logger)
	if err != nil {
		logging.Fatal(logger, "tx: build engine", err)
		return nil
	}
	defer engine.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return statsClient.Run(gctx) })
	g.Go(func() error { return bufReader.Run(gctx) })
	g.Go(func() error { return engine.Run(gctx) })

	err = g.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownSentinelTimeout)
	defer shutdownCancel()
	_ = engine.Stop(shutdownCtx)

	if err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "tx: worker failed", err)
	}
	return nil
}
