// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/reqtrace/services/reqtrace/corpus"
	"github.com/AleutianAI/reqtrace/services/reqtrace/telemetry"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the traceability graph whenever the corpus changes",
	Long: `Runs an initial build, then watches the corpus root and rebuilds on
every document change. The graph has no incremental update path;
each change batch triggers a full rebuild, which is cheap at the
corpus sizes this tool targets.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&buildCorpusRoot, "corpus", "", "Corpus root directory (overrides config)")
	watchCmd.Flags().StringVar(&buildSchemaPath, "schema", "", "Schema override YAML (overrides config)")
	watchCmd.Flags().StringVar(&config.MetricsAddr, "metrics-addr", config.MetricsAddr, "Serve Prometheus metrics on this address")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	applyBuildFlags()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.MetricsAddr != "" {
		shutdown, err := startMetrics(ctx)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	rebuild := func() {
		result, parseDiags, err := buildOnce(ctx)
		if err != nil {
			logger.Error("build failed", "error", err)
			return
		}
		printReport(result, parseDiags)
	}

	rebuild()

	watcher, err := corpus.NewWatcher(config.Corpus.Root, func(changes []corpus.FileChange) {
		logger.Info("corpus changed", "files", len(changes))
		rebuild()
	}, nil)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	logger.Info("watching corpus", "root", config.Corpus.Root)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// startMetrics initializes the telemetry stack with the Prometheus
// exporter and serves /metrics until the context is canceled.
func startMetrics(ctx context.Context) (func(context.Context) error, error) {
	cfg := telemetry.DefaultConfig()
	cfg.MetricExporter = "prometheus"

	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	mux := http.NewServeMux()
	if h := telemetry.MetricsHandler(); h != nil {
		mux.Handle("/metrics", h)
	}
	srv := &http.Server{
		Addr:              config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", config.MetricsAddr)
	return shutdown, nil
}
