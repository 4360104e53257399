// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command mockproto is a minimal protocol handler: it reads newline-
// delimited records from stdin (or a file, via --input) and writes each to
// its outbound local stream, standing in for a message-broker-specific
// protocol handler such as a Kafka consumer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/stream"
)

var flags struct {
	socketPath string
	input      string
	statsAddr  string
	syslogAddr string
	logLevel   string
	name       string
}

var rootCmd = &cobra.Command{
	Use:   "mockproto",
	Short: "forward newline-delimited records from stdin or a file to a local stream",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.socketPath, "socket_path", "", "rendezvous path to write records to (required)")
	f.StringVar(&flags.input, "input", "", "file to read records from, one per line; empty reads stdin")
	f.StringVar(&flags.statsAddr, "stats-addr", "127.0.0.1:8125", "statsd collector address")
	f.StringVar(&flags.syslogAddr, "syslog-addr", "", "syslog collector address, empty to disable")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level")
	f.StringVar(&flags.name, "name", "mockproto", "process name, used as log field and statsd prefix")
	rootCmd.MarkFlagRequired("socket_path")
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
		return fmt.Errorf("mockproto: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	statsHandler := stats.NewHandler()
	statsClient, err := stats.NewClient(flags.statsAddr, flags.name, statsHandler)
	if err != nil {
		logging.Fatal(logger, "mockproto: build stats client", err)
		return nil
	}
	defer statsClient.Close()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	writer, err := stream.ListenWriter(flags.socketPath)
	if err != nil {
		logging.Fatal(logger, "mockproto: listen on rendezvous socket", err)
		return nil
	}
	defer writer.Close()

	src := os.Stdin
	if flags.input != "" {
		f, err := os.Open(flags.input)
		if err != nil {
			logging.Fatal(logger, "mockproto: open input file", err)
			return nil
		}
		defer f.Close()
		src = f
	}

	// feed returns (without error) once its input reaches EOF; runCtx/
	// cancelRun let that drain the stats flusher instead of leaving it
	// blocked until the process signal fires.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return statsClient.Run(gctx) })
	g.Go(func() error {
		defer cancelRun()
		return feed(gctx, src, writer, statsHandler)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "mockproto: worker failed", err)
	}
	return nil
}

func feed(ctx context.Context, src *os.File, w *stream.Writer, h *stats.Handler) error {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if err := w.WriteRecord(line); err != nil {
			return fmt.Errorf("mockproto: write record: %w", err)
		}
		h.OutBytes.Add(uint64(len(line)))
		h.OutPackets.Add(1)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("mockproto: read input: %w", err)
	}
	return nil
}
