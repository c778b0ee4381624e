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

// Package workflow defines the high-level business logic orchestrations.
// This file implements the background retention sweeper for the durable
// output area. In download-URL delivery mode the pipeline leaves finished
// outputs on disk for the client to fetch; this workflow is the retention
// policy that eventually reclaims them, removing every output older than
// the configured maximum age on a fixed interval.
package workflow

import (
	goctx "context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/cloud"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// OutputRetentionWorkflow periodically sweeps the durable output area.
// It implements the cor.Command interface so a sweep can be traced like
// any other command, but it is designed to run as a background task.
type OutputRetentionWorkflow struct {
	cor.BaseCommand
	outputDir   string
	maxAge      time.Duration
	interval    time.Duration
	closeTicker chan struct{}
}

// NewOutputRetentionWorkflow constructs the sweeper from the retention
// section of the configuration.
func NewOutputRetentionWorkflow(config *cloud.Config) *OutputRetentionWorkflow {
	return &OutputRetentionWorkflow{
		BaseCommand: *cor.NewBaseCommand("output-retention"),
		outputDir:   config.Storage.OutputDir,
		maxAge:      time.Duration(config.Retention.MaxAgeInSeconds) * time.Second,
		interval:    time.Duration(config.Retention.SweepIntervalInSeconds) * time.Second,
		closeTicker: make(chan struct{}),
	}
}

// IsExecutable always returns true: the sweeper is a self-contained
// background job that does not depend on prior outputs in a chain.
func (m *OutputRetentionWorkflow) IsExecutable(_ cor.Context) bool {
	return true
}

// StartTimer kicks off the background sweep. A time.Ticker fires at the
// configured interval; each tick executes one sweep inside a new trace
// span. The goroutine runs until Stop is called.
func (m *OutputRetentionWorkflow) StartTimer() {
	tracer := otel.Tracer("retention-sweep")
	ticker := time.NewTicker(m.interval)

	go func(m *OutputRetentionWorkflow) {
		for {
			select {
			case <-ticker.C:
				traceCtx, span := tracer.Start(goctx.Background(), "output-retention")
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(traceCtx)

				m.Execute(chainCtx)

				if chainCtx.HasErrors() {
					span.SetStatus(codes.Error, "failed to sweep output area")
				} else {
					span.SetStatus(codes.Ok, "swept output area")
				}
				span.End()
			case <-m.closeTicker:
				ticker.Stop()
				return
			}
		}
	}(m)
}

// Stop terminates the background sweep goroutine.
func (m *OutputRetentionWorkflow) Stop() {
	close(m.closeTicker)
}

// Execute performs one sweep: every regular file in the output area whose
// modification time is older than the retention age is removed. Deletion
// failures are logged and the sweep continues; reclamation is best-effort.
func (m *OutputRetentionWorkflow) Execute(context cor.Context) {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		context.AddError(m.GetName(), err)
		return
	}

	cutoff := time.Now().Add(-m.maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(m.outputDir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to reclaim expired output", "path", path, "error", err)
			continue
		}
		slog.InfoContext(context.GetContext(), "reclaimed expired output",
			"path", path, "age", time.Since(info.ModTime()).Round(time.Second).String())
	}
	m.GetSuccessCounter().Add(context.GetContext(), 1)
}
