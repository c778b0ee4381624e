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

// This file tests the engine-run command: outcome classification into the
// sentinel errors and unconditional input reclamation.
package commands_test

import (
	"os"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/services"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/workers"
	test "github.com/jaycherian/gcp-go-video-watermark/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// runWatermark persists fake inputs at the session paths and executes the
// watermark command against the given fake engine script.
func runWatermark(t *testing.T, script string, timeout time.Duration) (cor.Context, *model.Session) {
	t.Helper()
	tempDir := t.TempDir()

	session := model.NewSession()
	session.DerivePaths(tempDir, tempDir, "movie.mp4", "logo.png", model.DeliveryModeStream)
	assert.NoError(t, os.WriteFile(session.InputVideoPath, []byte("video"), 0o644))
	assert.NoError(t, os.WriteFile(session.InputLogoPath, []byte("logo"), 0o644))
	req := &model.WatermarkRequest{Session: session, Kind: model.LogoStatic}

	executor := engine.NewExecutor(test.WriteFakeEngine(t, script), timeout)
	pool := workers.NewPool(1)
	t.Cleanup(pool.Close)
	cmd := commands.NewWatermarkCommand("watermark-exec", executor, pool, services.NewCleanupService(tempDir))

	chainCtx := newChainContext(req)
	cmd.Execute(chainCtx)
	return chainCtx, session
}

// TestWatermarkCommandSuccess verifies that a successful engine run pipes
// the output path forward and reclaims the consumed inputs.
func TestWatermarkCommandSuccess(t *testing.T) {
	chainCtx, session := runWatermark(t, test.FakeEngineSuccess, 10*time.Second)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, session.OutputPath, chainCtx.Get(cor.CtxOut))
	assert.FileExists(t, session.OutputPath)
	assert.NoFileExists(t, session.InputVideoPath)
	assert.NoFileExists(t, session.InputLogoPath)
}

// TestWatermarkCommandFailure verifies that a failing engine records the
// processing-failure sentinel and still reclaims the inputs.
func TestWatermarkCommandFailure(t *testing.T) {
	chainCtx, session := runWatermark(t, test.FakeEngineFail, 10*time.Second)

	assert.True(t, chainCtx.HasErrors())
	assert.ErrorIs(t, chainCtx.GetErrors()["watermark-exec"], commands.ErrEngineFailed)
	assert.NoFileExists(t, session.InputVideoPath)
	assert.NoFileExists(t, session.InputLogoPath)
}

// TestWatermarkCommandTimeout verifies that a hung engine classifies as
// the timeout sentinel and the inputs are reclaimed afterward.
func TestWatermarkCommandTimeout(t *testing.T) {
	chainCtx, session := runWatermark(t, test.FakeEngineHang, time.Second)

	assert.True(t, chainCtx.HasErrors())
	assert.ErrorIs(t, chainCtx.GetErrors()["watermark-exec"], commands.ErrEngineTimeout)
	assert.NoFileExists(t, session.InputVideoPath)
}

// TestWatermarkCommandEngineMissing verifies the unavailable-engine
// sentinel when the binary cannot be launched.
func TestWatermarkCommandEngineMissing(t *testing.T) {
	tempDir := t.TempDir()

	session := model.NewSession()
	session.DerivePaths(tempDir, tempDir, "movie.mp4", "logo.png", model.DeliveryModeStream)
	req := &model.WatermarkRequest{Session: session, Kind: model.LogoStatic}

	executor := engine.NewExecutor(tempDir+"/no-such-engine", time.Second)
	pool := workers.NewPool(1)
	t.Cleanup(pool.Close)
	cmd := commands.NewWatermarkCommand("watermark-exec", executor, pool, services.NewCleanupService(tempDir))

	chainCtx := newChainContext(req)
	cmd.Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.ErrorIs(t, chainCtx.GetErrors()["watermark-exec"], commands.ErrEngineUnavailable)
}
