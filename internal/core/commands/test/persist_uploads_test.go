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

// Package commands_test contains unit tests for the pipeline commands.
// This file tests the upload persistence command: both parts land at
// their derived session paths, the paths are tracked as transient files,
// and the request is piped to the next command.
package commands_test

import (
	"context"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	test "github.com/jaycherian/gcp-go-video-watermark/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// newChainContext builds a workflow context carrying the given request.
func newChainContext(req *model.WatermarkRequest) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, req)
	return chainCtx
}

// TestPersistUploads verifies the happy path: both uploads are written to
// the session's transient paths and registered for cleanup.
func TestPersistUploads(t *testing.T) {
	tempDir := t.TempDir()
	video, logo := test.FileHeaders(t, "movie.mp4", "logo.png")

	session := model.NewSession()
	session.DerivePaths(tempDir, tempDir, "movie.mp4", "logo.png", model.DeliveryModeStream)
	req := &model.WatermarkRequest{Session: session, Video: video, Logo: logo, Kind: model.LogoStatic}

	chainCtx := newChainContext(req)
	cmd := commands.NewPersistUploads("persist-uploads")
	assert.True(t, cmd.IsExecutable(chainCtx))
	cmd.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.FileExists(t, session.InputVideoPath)
	assert.FileExists(t, session.InputLogoPath)

	// The persisted bytes match what was uploaded.
	content, err := os.ReadFile(session.InputVideoPath)
	assert.NoError(t, err)
	assert.Equal(t, "not really a video", string(content))

	// Both paths are tracked for reclamation and the request is piped on.
	assert.ElementsMatch(t,
		[]string{session.InputVideoPath, session.InputLogoPath},
		chainCtx.GetTempFiles())
	assert.Equal(t, req, chainCtx.Get(cor.CtxOut))
}

// TestPersistUploadsBadDestination verifies that an unwritable transient
// area surfaces as a command error rather than a panic.
func TestPersistUploadsBadDestination(t *testing.T) {
	video, logo := test.FileHeaders(t, "movie.mp4", "logo.png")

	session := model.NewSession()
	// A transient directory that does not exist makes os.Create fail.
	session.DerivePaths("/nonexistent-transient-area", "/nonexistent-transient-area",
		"movie.mp4", "logo.png", model.DeliveryModeStream)
	req := &model.WatermarkRequest{Session: session, Video: video, Logo: logo, Kind: model.LogoStatic}

	chainCtx := newChainContext(req)
	commands.NewPersistUploads("persist-uploads").Execute(chainCtx)

	assert.True(t, chainCtx.HasErrors())
	assert.Empty(t, chainCtx.GetTempFiles())
}

// TestPersistUploadsNotExecutable verifies the guard: without a request
// carrying a session, the command refuses to run.
func TestPersistUploadsNotExecutable(t *testing.T) {
	cmd := commands.NewPersistUploads("persist-uploads")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	assert.False(t, cmd.IsExecutable(chainCtx))

	chainCtx.Add(cor.CtxIn, &model.WatermarkRequest{})
	assert.False(t, cmd.IsExecutable(chainCtx))
}
