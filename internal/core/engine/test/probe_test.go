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

// This file tests the engine availability probe: classification of a
// runnable versus missing binary, and the rate-limited answer caching.
package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	test "github.com/jaycherian/gcp-go-video-watermark/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// removeFile deletes a file, failing the test on error.
func removeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove %s: %v", path, err)
	}
}

// writeScript writes an executable script at the given path.
func writeScript(t *testing.T, path string, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// versionOnlyEngine answers the version query and nothing else.
const versionOnlyEngine = `#!/bin/sh
echo "fake engine version 1.0"
exit 0
`

// TestProbeAvailable verifies that a runnable binary reports available.
func TestProbeAvailable(t *testing.T) {
	enginePath := test.WriteFakeEngine(t, versionOnlyEngine)
	probe := engine.NewHealthProbe(engine.NewExecutor(enginePath, 0), time.Minute)

	assert.True(t, probe.Available(context.Background()))
}

// TestProbeUnavailable verifies that a missing binary reports unavailable
// rather than raising.
func TestProbeUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-engine")
	probe := engine.NewHealthProbe(engine.NewExecutor(missing, 0), time.Minute)

	assert.False(t, probe.Available(context.Background()))
}

// TestProbeCachesAnswer verifies that calls inside the rate limit
// interval serve the cached answer: the binary disappearing between two
// immediate calls is not noticed until the interval elapses.
func TestProbeCachesAnswer(t *testing.T) {
	enginePath := test.WriteFakeEngine(t, versionOnlyEngine)
	probe := engine.NewHealthProbe(engine.NewExecutor(enginePath, 0), time.Hour)

	assert.True(t, probe.Available(context.Background()))

	// Remove the binary. The cached answer must survive.
	removeFile(t, enginePath)
	assert.True(t, probe.Available(context.Background()))
}

// TestProbeFailureRechecked verifies that an unavailable answer flips to
// available once the interval elapses and the binary is back.
func TestProbeFailureRechecked(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "engine")
	probe := engine.NewHealthProbe(engine.NewExecutor(missing, 0), 10*time.Millisecond)

	assert.False(t, probe.Available(context.Background()))

	writeScript(t, missing, versionOnlyEngine)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, probe.Available(context.Background()))
}
