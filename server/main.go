// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the video watermark server.
//
// This application sets up and runs a web server using the Gin framework.
// It exposes a single watermarking endpoint that accepts a base video and
// a logo over multipart form data, composites the logo onto the video with
// ffmpeg, and returns the result either as a download URL backed by a
// static file server or streamed directly as the response body. The server
// is instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// The main function initializes configuration, logging, and telemetry,
// builds the application state (engine executor, worker pool, cleanup
// coordinator, watermark workflow), registers the routes, and handles
// graceful shutdown: in-flight requests get a drain window and the
// transient working area is purged on exit.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/telemetry"
)

// main orchestrates the setup of logging, telemetry, configuration, the
// application state, the web server, and graceful shutdown on interrupt.
func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// The root context for the application; cancelled when main exits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from TOML files.
	config := GetConfig()

	// Initialize OpenTelemetry for distributed tracing and metrics.
	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize the application's state: storage directories, engine
	// executor, worker pool, cleanup coordinator, and workflows.
	InitState(ctx)
	slog.Info("Initialized State")

	// Build the Gin router with middleware and all routes registered.
	r := NewRouter()

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
		// No WriteTimeout: a watermark response may legitimately take the
		// full engine budget plus transfer time.
		ReadHeaderTimeout: 20 * time.Second,
	}

	// Serve in a separate goroutine so main can wait on signals.
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Block until an interrupt or termination signal arrives.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	// Stop background workers and flush telemetry.
	ShutdownState()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	// The transient working area holds nothing of value once no request
	// is in flight.
	if err := os.RemoveAll(config.Storage.TempDir); err != nil {
		slog.Warn("failed to purge transient area", "dir", config.Storage.TempDir, "error", err)
	}

	log.Println("Server exiting")
}
