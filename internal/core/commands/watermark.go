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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that runs the overlay engine for one session.
//
// Logic Flow:
//  1. Receive the persisted `model.WatermarkRequest` from the context.
//  2. Build the overlay invocation from the session's paths and the logo
//     kind. At most one invocation is built per session.
//  3. Submit the engine run to the bounded worker pool and suspend until
//     it returns, so the long-blocking execution never occupies a request
//     handling goroutine slot beyond this job's own.
//  4. Synchronously reclaim the two input files regardless of the outcome;
//     the engine has consumed them either way.
//  5. Classify the tagged result: success pipes the output path to the
//     next command, every other variant records a distinct error with its
//     diagnostic detail logged server-side.
package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/services"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workers"
)

// The error variants surfaced to the orchestrator. All of them collapse
// to a generic server error at the HTTP boundary; the distinction exists
// for logs and tests.
var (
	ErrEngineTimeout     = errors.New("engine timed out")
	ErrEngineFailed      = errors.New("engine processing failed")
	ErrEngineUnavailable = errors.New("engine binary not found")
)

// WatermarkCommand is a command implementation that wraps the execution
// of the overlay engine for a single session.
type WatermarkCommand struct {
	cor.BaseCommand
	executor *engine.Executor
	pool     *workers.Pool
	cleanup  *services.CleanupService
}

// NewWatermarkCommand is the constructor for creating a new
// WatermarkCommand.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - executor: The engine executor that runs the external process.
//   - pool: The bounded worker pool the execution is offloaded to.
//   - cleanup: The cleanup coordinator used to reclaim the inputs.
func NewWatermarkCommand(name string, executor *engine.Executor, pool *workers.Pool, cleanup *services.CleanupService) *WatermarkCommand {
	return &WatermarkCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		executor:    executor,
		pool:        pool,
		cleanup:     cleanup,
	}
}

// IsExecutable verifies the context carries a watermark request before
// execution.
func (c *WatermarkCommand) IsExecutable(context cor.Context) bool {
	if !c.BaseCommand.IsExecutable(context) {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*model.WatermarkRequest)
	return ok
}

// Execute builds the invocation, runs it on the worker pool, reclaims the
// inputs, and classifies the outcome.
func (c *WatermarkCommand) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.WatermarkRequest)
	session := req.Session

	invocation := engine.NewOverlayInvocation(
		session.InputVideoPath,
		session.InputLogoPath,
		session.OutputPath,
		req.Kind,
	)

	start := time.Now()
	results := make(chan engine.Result, 1)
	goCtx := context.GetContext()
	c.pool.Submit(func() {
		results <- c.executor.Execute(goCtx, invocation)
	})
	result := <-results

	// The engine has read the inputs whether or not it succeeded.
	c.cleanup.CleanupInputs(session)

	switch result.Outcome {
	case engine.OutcomeSuccess:
		slog.InfoContext(goCtx, "engine run complete",
			"session", session.Id,
			"duration", time.Since(start).Round(time.Millisecond).String(),
			"output", result.OutputPath,
			"output_bytes", fileSize(result.OutputPath),
		)
		c.GetSuccessCounter().Add(goCtx, 1)
		context.Add(c.GetOutputParam(), result.OutputPath)
	case engine.OutcomeTimedOut:
		slog.ErrorContext(goCtx, "engine run timed out",
			"session", session.Id, "timeout", c.executor.Timeout.String())
		c.GetErrorCounter().Add(goCtx, 1)
		context.AddError(c.GetName(), ErrEngineTimeout)
	case engine.OutcomeEngineNotFound:
		slog.ErrorContext(goCtx, "engine binary not found",
			"session", session.Id, "path", c.executor.Path)
		c.GetErrorCounter().Add(goCtx, 1)
		context.AddError(c.GetName(), ErrEngineUnavailable)
	default:
		slog.ErrorContext(goCtx, "engine run failed",
			"session", session.Id, "exit_code", result.ExitCode, "stderr", result.Stderr)
		c.GetErrorCounter().Add(goCtx, 1)
		context.AddError(c.GetName(), ErrEngineFailed)
	}
}

// fileSize returns the size of the file at path, or -1 when it cannot be
// read. Used only to enrich the logs.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return -1
	}
	return info.Size()
}
