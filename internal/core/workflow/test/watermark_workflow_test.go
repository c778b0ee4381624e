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

// This file tests the watermark pipeline end to end against fake engine
// binaries: persist the uploads, run the engine, and verify the session's
// file lifecycle on both the success and failure paths.
package workflow_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/services"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workers"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-watermark/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// newRequest assembles a watermark request over a test-scoped transient
// directory, mirroring what the HTTP layer hands the workflow.
func newRequest(t *testing.T, tempDir string, videoName string, logoName string) *model.WatermarkRequest {
	t.Helper()
	video, logo := test.FileHeaders(t, videoName, logoName)

	session := model.NewSession()
	session.DerivePaths(tempDir, tempDir, videoName, logoName, model.DeliveryModeStream)

	return &model.WatermarkRequest{
		Session: session,
		Video:   video,
		Logo:    logo,
		Kind:    model.LogoKindForName(logoName),
	}
}

// runWorkflow builds the workflow around the given fake engine script and
// executes it for one request, returning the chain context.
func runWorkflow(t *testing.T, tempDir string, script string, req *model.WatermarkRequest) cor.Context {
	t.Helper()
	executor := engine.NewExecutor(test.WriteFakeEngine(t, script), 10*time.Second)
	pool := workers.NewPool(2)
	t.Cleanup(pool.Close)
	cleanup := services.NewCleanupService(tempDir)

	wf := workflow.NewWatermarkWorkflow(executor, pool, cleanup)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, req)
	wf.Execute(chainCtx)
	return chainCtx
}

// sessionFiles lists the transient-area entries carrying the session's
// id prefix.
func sessionFiles(t *testing.T, tempDir string, sessionId string) []string {
	t.Helper()
	entries, err := os.ReadDir(tempDir)
	assert.NoError(t, err)
	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), sessionId) {
			names = append(names, entry.Name())
		}
	}
	return names
}

// TestWatermarkWorkflowSuccess verifies the happy path: the uploads are
// persisted, the engine produces the output, and the consumed inputs are
// reclaimed while the output survives for delivery.
func TestWatermarkWorkflowSuccess(t *testing.T) {
	tempDir := t.TempDir()
	req := newRequest(t, tempDir, "movie.mp4", "logo.png")

	chainCtx := runWorkflow(t, tempDir, test.FakeEngineSuccess, req)

	assert.False(t, chainCtx.HasErrors())

	// The output exists and is the only session file left.
	_, err := os.Stat(req.Session.OutputPath)
	assert.NoError(t, err)
	assert.NoFileExists(t, req.Session.InputVideoPath)
	assert.NoFileExists(t, req.Session.InputLogoPath)

	// The chain's final output is the finished file's path.
	assert.Equal(t, req.Session.OutputPath, chainCtx.Get(cor.CtxIn))
}

// TestWatermarkWorkflowEngineFailure verifies the failure path: the
// pipeline records the engine error and the consumed inputs are still
// reclaimed.
func TestWatermarkWorkflowEngineFailure(t *testing.T) {
	tempDir := t.TempDir()
	req := newRequest(t, tempDir, "movie.mp4", "logo.png")

	chainCtx := runWorkflow(t, tempDir, test.FakeEngineFail, req)

	assert.True(t, chainCtx.HasErrors())

	assert.NoFileExists(t, req.Session.InputVideoPath)
	assert.NoFileExists(t, req.Session.InputLogoPath)

	// A terminal sweep leaves nothing of the session behind.
	services.NewCleanupService(tempDir).CleanupAll(req.Session.Id)
	assert.Empty(t, sessionFiles(t, tempDir, req.Session.Id))
}

// TestWatermarkWorkflowMissingEngine verifies that an unresolvable engine
// binary surfaces as a pipeline error rather than a panic.
func TestWatermarkWorkflowMissingEngine(t *testing.T) {
	tempDir := t.TempDir()
	req := newRequest(t, tempDir, "movie.mp4", "logo.png")

	executor := engine.NewExecutor(tempDir+"/no-such-engine", 10*time.Second)
	pool := workers.NewPool(1)
	t.Cleanup(pool.Close)
	wf := workflow.NewWatermarkWorkflow(executor, pool, services.NewCleanupService(tempDir))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, req)
	wf.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
}

// TestWatermarkWorkflowLoopingLogo verifies that a .mov logo travels the
// pipeline classified as looping.
func TestWatermarkWorkflowLoopingLogo(t *testing.T) {
	tempDir := t.TempDir()
	req := newRequest(t, tempDir, "movie.mp4", "logo.mov")

	assert.Equal(t, model.LogoLooping, req.Kind)

	chainCtx := runWorkflow(t, tempDir, test.FakeEngineSuccess, req)
	assert.False(t, chainCtx.HasErrors())
}
