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

// Package engine_test contains unit tests for the engine package. This
// file tests the overlay invocation builder: argument ordering, the two
// filter-graph variants, and immutability of a built invocation.
package engine_test

import (
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/engine"
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// filterGraph extracts the value following the -filter_complex flag.
func filterGraph(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "-filter_complex" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatal("no -filter_complex flag in argument list")
	return ""
}

// TestStaticInvocation verifies the argument list for a static logo: the
// overwrite flag leads, the base video precedes the logo input, no loop
// flag is present, and the fixed encoding parameters follow the graph.
func TestStaticInvocation(t *testing.T) {
	inv := engine.NewOverlayInvocation("in/video.mp4", "in/logo.png", "out/result.mp4", model.LogoStatic)
	args := inv.Args()

	assert.Equal(t, "-y", args[0])
	assert.Equal(t, []string{"-i", "in/video.mp4"}, args[1:3])
	assert.Equal(t, []string{"-i", "in/logo.png"}, args[3:5])
	assert.NotContains(t, args, "-stream_loop")

	// Encoding parameters are fixed for every job.
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-c:v libx264")
	assert.Contains(t, joined, "-preset ultrafast")
	assert.Contains(t, joined, "-crf 23")
	assert.Contains(t, joined, "-threads 1")
	assert.Contains(t, joined, "-max_muxing_queue_size 1024")
	assert.Contains(t, joined, "-c:a copy")

	// The output path is the final argument and is echoed by OutputPath.
	assert.Equal(t, "out/result.mp4", args[len(args)-1])
	assert.Equal(t, "out/result.mp4", inv.OutputPath())
}

// TestStaticFilterGraph verifies the static graph: even-dimension scaling
// of the base, quarter-width fully opaque logo, bottom-right inset, and
// no duration coupling between the two inputs.
func TestStaticFilterGraph(t *testing.T) {
	inv := engine.NewOverlayInvocation("v.mp4", "l.png", "o.mp4", model.LogoStatic)
	graph := filterGraph(t, inv.Args())

	assert.Contains(t, graph, "[0:v]scale=trunc(iw/2)*2:trunc(ih/2)*2[base]")
	assert.Contains(t, graph, "format=rgba,colorchannelmixer=aa=1.0")
	assert.Contains(t, graph, "scale=trunc(iw/4)*2:-1")
	assert.Contains(t, graph, "overlay=W-w-10:H-h-10")
	assert.NotContains(t, graph, "shortest")
}

// TestLoopingInvocation verifies that a looping logo adds an indefinite
// stream_loop flag immediately before the logo input and couples the
// output duration to the base video via shortest=1.
func TestLoopingInvocation(t *testing.T) {
	inv := engine.NewOverlayInvocation("v.mp4", "l.mov", "o.mp4", model.LogoLooping)
	args := inv.Args()

	// The loop flag applies to the input that follows it, so it must sit
	// between the base video input and the logo input.
	assert.Equal(t, []string{"-i", "v.mp4", "-stream_loop", "-1", "-i", "l.mov"}, args[1:7])

	graph := filterGraph(t, args)
	assert.Contains(t, graph, "overlay=W-w-10:H-h-10:shortest=1")
}

// TestInvocationImmutable verifies that mutating the slice returned by
// Args does not alter the invocation.
func TestInvocationImmutable(t *testing.T) {
	inv := engine.NewOverlayInvocation("v.mp4", "l.png", "o.mp4", model.LogoStatic)

	stolen := inv.Args()
	stolen[0] = "-corrupted"

	assert.Equal(t, "-y", inv.Args()[0])
}
