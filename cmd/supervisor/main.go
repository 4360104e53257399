// Copyright 2026 The godiode Authors. Use of this source code is governed by
// the MIT license that can be found in the LICENSE file.

// Command supervisor loads a chain configuration, starts the statistics
// multiplexer in its own goroutine, and then spawns every chain's handler
// processes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opendiode/godiode/config"
	"github.com/opendiode/godiode/internal/handlerutil"
	"github.com/opendiode/godiode/logging"
	"github.com/opendiode/godiode/statsmux"
	"github.com/opendiode/godiode/supervisor"
)

var flags struct {
	configFile string
}

var rootCmd = &cobra.Command{
	Use:   "supervisor",
	Short: "start the stats multiplexer and every chain's handler processes",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&flags.configFile, "config", "/etc/godiode/chain.yaml", "path to the chain configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	doc, err := config.Load(flags.configFile)
	if err != nil {
		return fmt.Errorf("supervisor: load config: %w", err)
	}

	processName := fmt.Sprintf("osdd.%s.%s", doc.Settings.Instance, doc.Settings.Network)
	syslogAddr := ""
	if doc.Settings.SyslogHost != "" {
		syslogAddr = fmt.Sprintf("%s:%d", doc.Settings.SyslogHost, doc.Settings.SyslogPort)
	}
	logger, err := logging.New(logging.ParseLevel(doc.Settings.LogLevel), syslogAddr, processName)
	if err != nil {
		return fmt.Errorf("supervisor: build logger: %w", err)
	}
	defer logger.Sync()
	defer logging.InstallPanicHook(logger)()

	if err := os.MkdirAll(doc.Settings.Path, 0o755); err != nil {
		logging.Fatal(logger, "supervisor: create rendezvous directory", err)
		return nil
	}

	plan, err := supervisor.Build(doc)
	if err != nil {
		logging.Fatal(logger, "supervisor: build plan", err)
		return nil
	}

	mux, err := statsmux.New(doc.Settings.StatsMultiplexerListeningPort, doc.Settings.StatsServers, logger)
	if err != nil {
		logging.Fatal(logger, "supervisor: build stats multiplexer", err)
		return nil
	}
	defer mux.Close()

	ctx, stop := handlerutil.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mux.Run(gctx) })

	if err := plan.Start(); err != nil {
		logging.Fatal(logger, "supervisor: start handler processes", err)
		return nil
	}
	logger.Info("supervisor: started", zap.Int("handlers", len(plan.Handlers)))

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logging.Fatal(logger, "supervisor: stats multiplexer failed", err)
	}
	return nil
}
