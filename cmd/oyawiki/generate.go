// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	"github.com/oyawiki/engine/internal/errors"
	"github.com/oyawiki/engine/internal/ui"
	"github.com/oyawiki/engine/pkg/orchestrator"
)

// runGenerate executes the 'generate' command, running the full
// Discover -> Analyze -> Files -> Directories -> Synthesize -> Index
// pipeline against the current repository.
//
// Flags:
//   - --full: clear the signature store first, regenerating every page
//   - --debug: enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (empty disables it)
//
// Examples:
//
//	oyawiki generate
//	oyawiki generate --full
//	oyawiki generate --metrics-addr :9090
func runGenerate(args []string, configPath string) {
	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	full := fs.Bool("full", false, "Regenerate every page, ignoring the signature store")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	quiet := fs.BoolP("quiet", "q", false, "Suppress the progress bar")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: oyawiki generate [options]

Builds the wiki and search index for the current repository, using
configuration from .oya/config/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := loadRepoConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load oyawiki configuration",
			err.Error(),
			"Run 'oyawiki init' to create a new configuration",
			err,
		), false)
	}

	if *full {
		sigPath := filepath.Join(cfg.DataDir, "meta", "signatures.json")
		if err := os.Remove(sigPath); err != nil && !os.IsNotExist(err) {
			errors.FatalError(errors.NewPermissionError(
				"Cannot clear the signature store",
				err.Error(),
				"Check file permissions on "+sigPath,
				err,
			), false)
		}
		logger.Info("generate.full.signatures_cleared", "path", sigPath)
	}

	provider, err := providerFor(cfg)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot create the LLM provider",
			err.Error(),
			"Check the llm/llm_model settings and the provider's API key environment variable",
			err,
		), false)
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	var bar *progressbar.ProgressBar
	var progress orchestrator.ProgressFunc
	if !*quiet {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("generating wiki"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		progress = func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		}
	}

	o := &orchestrator.Orchestrator{
		Config:   cfg,
		Provider: provider,
		Progress: progress,
	}

	logger.Info("generate.starting", "project_id", cfg.ProjectID, "repo_root", cfg.RepoRoot)

	result, err := o.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Generation failed",
			err.Error(),
			"Re-run with --debug for more detail; this may be a bug worth reporting",
			err,
		), false)
	}

	printGenerateResult(result)
}

func printGenerateResult(result orchestrator.RunResult) {
	ui.Header("Generation complete")
	fmt.Printf("Files discovered:   %d\n", result.FilesDiscovered)
	fmt.Printf("Files generated:    %d\n", result.FilesGenerated)
	fmt.Printf("Files skipped:      %d\n", result.FilesSkipped)
	fmt.Printf("Directories:        %d generated, %d skipped\n", result.DirsGenerated, result.DirsSkipped)
	fmt.Printf("Chunks indexed:     %d\n", result.ChunksIndexed)
	if result.ParseErrors > 0 {
		fmt.Printf("Parse errors:       %d\n", result.ParseErrors)
	}
	if len(result.SkipReasons) > 0 {
		fmt.Println("\nSkip reasons:")
		for reason, count := range result.SkipReasons {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}
	fmt.Printf("\nDuration: %s\n", result.Duration.Round(1e6))
}
