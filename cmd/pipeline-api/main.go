// Copyright 2026 Archivist Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the archivist-api HTTP surface: submit jobs,
// track their progress, approve review-gated plans, and read execution
// reports, mirroring the teacher's promhttp wiring in cmd/cie/index.go.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haldorsen/archivist/internal/config"
	"github.com/haldorsen/archivist/internal/extract"
	"github.com/haldorsen/archivist/internal/llm"
	"github.com/haldorsen/archivist/internal/store"
	"github.com/haldorsen/archivist/pkg/pipeline/duplicate"
	"github.com/haldorsen/archivist/pkg/pipeline/indexer"
	"github.com/haldorsen/archivist/pkg/pipeline/job"
	"github.com/haldorsen/archivist/pkg/pipeline/planner"
	"github.com/haldorsen/archivist/pkg/pipeline/version"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	configPath := os.Getenv("ARCHIVIST_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("config.load_error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Store.DSN, cfg.Store.PoolSize, logger)
	if err != nil {
		logger.Error("store.open_error", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	controller := buildController(st, cfg, logger)
	srv := &server{controller: controller, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/jobs", srv.handleSubmit)
	r.Get("/jobs/{id}", srv.handleStatus)
	r.Get("/jobs/{id}/report", srv.handleReport)
	r.Post("/jobs/{id}/approve", srv.handleApprove)
	r.Post("/jobs/{id}/cancel", srv.handleCancel)
	r.Handle("/metrics", promhttp.Handler())

	addr := os.Getenv("ARCHIVIST_API_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info("api.listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api.listen_error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	logger.Info("api.shutting_down")
	_ = httpServer.Shutdown(shutdownCtx)
}

func buildController(st *store.Store, cfg config.Config, logger *slog.Logger) *job.Controller {
	local := llm.NewLocalClient(cfg.LocalLLM, logger)
	remote := llm.NewRemoteClient(cfg.RemoteLLM, logger)

	ix := indexer.New(st, extract.NewRegistry(), local, logger, cfg.Concurrency.CPUWorkers, cfg.BatchSize, cfg.TextExtractionBudgetBytes, cfg.MaxExtractionFileSizeBytes, true)
	dup := duplicate.New(st, local, logger, cfg.AllowDeletes)
	ver := version.New(st, local, logger, cfg.Version.SimilarityThreshold, store.ArchiveStrategy(cfg.Version.ArchiveStrategy), cfg.Version.FolderName)
	pl := planner.New(st, remote, logger)

	paths := job.Paths{
		Input: cfg.Paths.Input, Source: cfg.Paths.Source,
		Working: cfg.Paths.Working, Output: cfg.Paths.Output, Reports: cfg.Paths.Reports,
	}
	return job.New(st, ix, dup, ver, pl, logger, paths, cfg.ReviewRequired, cfg.DryRun)
}
