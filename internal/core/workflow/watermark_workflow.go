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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the watermarking job pipeline: persist the two uploads to their session
// paths, then run the overlay engine. Delivery of the finished output and
// terminal cleanup stay with the HTTP layer, which owns the response
// stream's lifetime.
package workflow

import (
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/services"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workers"
)

// WatermarkWorkflow orchestrates one watermarking job. The chain is built
// once and shared by all sessions; per-job state lives entirely in each
// execution's context, so concurrent jobs never interfere.
type WatermarkWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the watermark pipeline by invoking the underlying command
// chain. On success the chain's final output is the finished file's path;
// on failure the context carries the classified error.
func (m *WatermarkWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// initializeChain constructs the sequence of commands that define the
// watermark pipeline.
func (m *WatermarkWorkflow) initializeChain(executor *engine.Executor, pool *workers.Pool, cleanup *services.CleanupService) {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewPersistUploads("persist-uploads"))
	out.AddCommand(commands.NewWatermarkCommand("watermark-exec", executor, pool, cleanup))
	m.chain = out
}

// NewWatermarkWorkflow constructs the watermark pipeline.
//
// Inputs:
//   - executor: The engine executor running the external process.
//   - pool: The bounded worker pool engine runs are offloaded to.
//   - cleanup: The cleanup coordinator reclaiming consumed inputs.
//
// Returns:
//   - A pointer to a newly created and fully initialized WatermarkWorkflow.
func NewWatermarkWorkflow(executor *engine.Executor, pool *workers.Pool, cleanup *services.CleanupService) *WatermarkWorkflow {
	out := &WatermarkWorkflow{BaseCommand: *cor.NewBaseCommand("watermark-workflow")}
	out.initializeChain(executor, pool, cleanup)
	return out
}
