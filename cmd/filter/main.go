// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command filter is a filter-stage handler binary: it reads records from an
// inbound local stream and writes the filtered result to an outbound local
// stream. Two filter kinds are available, selected with --kind: "word" (a
// word/glob-matching drop filter) and "offsettag" (a sequence-tagging
// filter); any chain position between a protocol handler and a transport
// handler can use either.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/filters/offsettag"
	"github.com/opendiode/godiode/filters/wordfilter"
	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/ring"
	"github.com/opendiode/godiode/stats"
	"github.com/opendiode/godiode/stream"
)

var flags struct {
	socketPathIn  string
	socketPathOut string
	statsAddr     string
	syslogAddr    string
	logLevel      string
	name          string
	ringCapacity  int
	kind          string
	wordToFilter  string
}

var rootCmd = &cobra.Command{
	Use:   "filter",
	Short: "filter or tag records flowing between two local streams",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.socketPathIn, "socket_path_in", "", "rendezvous path to read records from (required)")
	f.StringVar(&flags.socketPathOut, "socket_path_out", "", "rendezvous path to write records to (required)")
	f.StringVar(&flags.statsAddr, "stats-addr", "127.0.0.1:8125", "statsd collector address")
	f.StringVar(&flags.syslogAddr, "syslog-addr", "", "syslog collector address, empty to disable")
	f.StringVar(&flags.logLevel, "log-level", "info", "log level")
	f.StringVar(&flags.name, "name", "filter", "process name, used as log field and statsd prefix")
	f.IntVar(&flags.ringCapacity, "ring-capacity", 1<<20, "ring arena capacity in bytes, applied to both internal rings")
	f.StringVar(&flags.kind, "kind", "word", `filter kind: "word" or "offsettag"`)
	f.StringVar(&flags.wordToFilter, "word_to_filter", "", "word or glob pattern to drop on (required for --kind=word)")
	rootCmd.MarkFlagRequired("socket_path_in")
	rootCmd.MarkFlagRequired("socket_path_out")
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
		return fmt.Errorf("filter: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	statsHandler := stats.NewHandler().WithCustom("filtered")
	statsClient, err := stats.NewClient(flags.statsAddr, flags.name, statsHandler)
	if err != nil {
		logging.Fatal(logger, "filter: build stats client", err)
		return nil
	}
	defer statsClient.Close()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	reader, err := stream.DialReader(ctx, flags.socketPathIn)
	if err != nil {
		logging.Fatal(logger, "filter: dial inbound rendezvous socket", err)
		return nil
	}
	defer reader.Close()

	writer, err := stream.ListenWriter(flags.socketPathOut)
	if err != nil {
		logging.Fatal(logger, "filter: listen on outbound rendezvous socket", err)
		return nil
	}
	defer writer.Close()

	in := ring.New(flags.ringCapacity)
	out := ring.New(flags.ringCapacity)
	bufReader := stream.NewBufferedReader(reader, in)
	bufWriter := stream.NewBufferedWriter(writer, out)

	stage, err := buildStage(statsHandler, in, out)
	if err != nil {
		logging.Fatal(logger, "filter: build stage", err)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return statsClient.Run(gctx) })
	g.Go(func() error { return bufReader.Run(gctx) })
	g.Go(func() error { return bufWriter.Run(gctx) })
	g.Go(func() error { return stage.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "filter: worker failed", err)
	}
	return nil
}

// runner is satisfied by both filter stage types; buildStage picks one by
// --kind so the rest of main need not know which.
type runner interface {
	Run(ctx context.Context) error
}

func buildStage(h *stats.Handler, in, out *ring.Ring) (runner, error) {
	switch flags.kind {
	case "word":
		if flags.wordToFilter == "" {
			return nil, fmt.Errorf("--word_to_filter is required for --kind=word")
		}
		f, err := wordfilter.New(flags.wordToFilter)
		if err != nil {
			return nil, err
		}
		return wordfilter.NewStage(f, in, out, h), nil
	case "offsettag":
		return offsettag.NewStage(in, out, h), nil
	default:
		return nil, fmt.Errorf("unknown filter kind %q", flags.kind)
	}
}
