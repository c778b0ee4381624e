// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the setup and initialization logic for the
// application's state. This file creates a centralized state manager that
// holds all shared dependencies: configuration, the engine executor and
// its health probe, the worker pool, the cleanup coordinator, and the
// workflows. Building the dependencies once at startup and passing them
// by reference avoids ambient global state.
//
// Functions:
//   - SetupOS: Points the configuration loader at the correct files.
//   - GetConfig: A singleton that loads the configuration exactly once.
//   - InitState: Ensures the storage directories exist and wires up all
//     pipeline components, starting the retention sweeper in URL mode.
//   - ShutdownState: Stops background workers during graceful shutdown.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/cloud"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/services"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workers"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workflow"
)

// StateManager holds all the shared dependencies for the application,
// acting as a centralized container so handlers and workflows receive
// their collaborators instead of reaching for globals.
type StateManager struct {
	config            *cloud.Config
	executor          *engine.Executor
	probe             *engine.HealthProbe
	pool              *workers.Pool
	cleanup           *services.CleanupService
	watermarkWorkflow *workflow.WatermarkWorkflow
	retention         *workflow.OutputRetentionWorkflow
}

// state is the package-level instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files: the config directory prefix and the runtime
// environment whose override file applies.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loading it from the file system on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state from the
// configuration. Directory creation failure is fatal here, at startup,
// so it can never surface as a per-request error later.
func InitState(_ context.Context) {
	config := GetConfig()

	if err := cloud.EnsureDirectories(config); err != nil {
		log.Fatalf("failed to prepare storage directories: %v\n", err)
	}

	state.executor = engine.NewExecutor(config.Engine.Path, config.Engine.Timeout())
	state.probe = engine.NewHealthProbe(state.executor, time.Duration(config.Engine.ProbeIntervalInSeconds)*time.Second)
	state.pool = workers.NewPool(config.Application.ThreadPoolSize)
	state.cleanup = services.NewCleanupService(config.Storage.TempDir)
	state.watermarkWorkflow = workflow.NewWatermarkWorkflow(state.executor, state.pool, state.cleanup)

	// The retention sweeper is the output-reclamation policy for URL
	// delivery; in streaming mode outputs never reach the durable area.
	if config.Application.DeliveryMode == model.DeliveryModeURL {
		state.retention = workflow.NewOutputRetentionWorkflow(config)
		state.retention.StartTimer()
	}
}

// ShutdownState stops the background components during graceful shutdown.
func ShutdownState() {
	if state.retention != nil {
		state.retention.Stop()
	}
	if state.pool != nil {
		state.pool.Close()
	}
}
