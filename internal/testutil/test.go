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

// Package test provides utility functions and canned inputs to support
// the application's test suite: a cached test configuration, multipart
// form builders standing in for real browser uploads, and fake engine
// scripts standing in for ffmpeg so executor behavior can be exercised
// without media files or a codec install.
package test

import (
	"bytes"
	"log"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-watermark/internal/cloud"
)

// StateManager caches the application configuration during test runs so
// the TOML files are loaded at most once per suite.
type StateManager struct {
	config *cloud.Config
}

// state holds the singleton StateManager for the test run.
var state = &StateManager{}

// HandleErr fails the test immediately when err is not nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test configuration files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. Missing
// configuration files leave the defaults from cloud.NewConfig in place,
// so tests run the same on a bare checkout.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(config)
		state.config = config
	}
	return state.config
}

// Fake engine scripts. Each stands in for ffmpeg in one behavioral mode;
// they treat their last argument as the declared output path, exactly as
// the overlay invocation lays its arguments out.
const (
	// FakeEngineSuccess exits 0 after producing its output file.
	FakeEngineSuccess = `#!/bin/sh
for last in "$@"; do :; done
echo watermarked > "$last"
exit 0
`
	// FakeEngineNoOutput exits 0 without leaving an output file behind,
	// simulating an engine killed mid-write whose exit status lied.
	FakeEngineNoOutput = `#!/bin/sh
for last in "$@"; do :; done
echo watermarked > "$last"
rm -f "$last"
exit 0
`
	// FakeEngineFail writes a diagnostic to stderr and exits non-zero.
	FakeEngineFail = `#!/bin/sh
echo "moov atom not found" >&2
exit 1
`
	// FakeEngineHang sleeps far past any test timeout budget.
	FakeEngineHang = `#!/bin/sh
sleep 30
`
)

// WriteFakeEngine writes an executable fake engine script into a
// test-scoped directory and returns its path.
func WriteFakeEngine(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake engine script: %v", err)
	}
	return path
}

// NewWatermarkForm builds a multipart form body with the named parts. A
// part whose name is empty is omitted entirely, letting tests exercise
// the missing-part validation path. Returns the encoded body and its
// Content-Type header value.
func NewWatermarkForm(t *testing.T, videoName string, logoName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if videoName != "" {
		part, err := writer.CreateFormFile("video", videoName)
		HandleErr(err, t)
		_, err = part.Write([]byte("not really a video"))
		HandleErr(err, t)
	}
	if logoName != "" {
		part, err := writer.CreateFormFile("logo", logoName)
		HandleErr(err, t)
		_, err = part.Write([]byte("not really a logo"))
		HandleErr(err, t)
	}
	HandleErr(writer.Close(), t)
	return body, writer.FormDataContentType()
}

// FileHeaders parses a canned multipart form and returns the two file
// headers, ready to be handed to the watermark workflow without an HTTP
// server in the loop.
func FileHeaders(t *testing.T, videoName string, logoName string) (video *multipart.FileHeader, logo *multipart.FileHeader) {
	t.Helper()
	body, contentType := NewWatermarkForm(t, videoName, logoName)

	_, params, err := mime.ParseMediaType(contentType)
	HandleErr(err, t)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	HandleErr(err, t)
	t.Cleanup(func() { _ = form.RemoveAll() })

	if files := form.File["video"]; len(files) > 0 {
		video = files[0]
	}
	if files := form.File["logo"]; len(files) > 0 {
		logo = files[0]
	}
	return video, logo
}
