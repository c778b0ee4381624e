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

// Package engine wraps the external video-processing engine (ffmpeg) used
// to composite a logo onto a base video. The engine is an opaque external
// collaborator: it is invoked purely via command-line arguments and judged
// purely by its exit code and the presence of its declared output file.
//
// This file defines the overlay invocation builder. Building an invocation
// is a total, pure function of the three file paths and the logo kind; the
// result is immutable once built.
package engine

import (
	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
)

// The two fixed filter graphs, selected by logo kind. Both scale the base
// video to even dimensions (the encoder rejects odd sizes), scale the logo
// to a quarter of its own width at full opacity, and composite it at a
// 10-pixel inset from the bottom-right corner. The looping variant adds
// shortest=1 so the output is truncated to the base video's duration once
// the looped logo stream outlasts it.
const (
	staticFilterGraph = "[0:v]scale=trunc(iw/2)*2:trunc(ih/2)*2[base];" +
		"[1:v]format=rgba,colorchannelmixer=aa=1.0," +
		"scale=trunc(iw/4)*2:-1[logo];" +
		"[base][logo]overlay=W-w-10:H-h-10"
	loopingFilterGraph = "[0:v]scale=trunc(iw/2)*2:trunc(ih/2)*2[base];" +
		"[1:v]format=rgba,colorchannelmixer=aa=1.0," +
		"scale=trunc(iw/4)*2:-1[wm];" +
		"[base][wm]overlay=W-w-10:H-h-10:shortest=1"
)

// Invocation is an ordered engine argument list plus the output path the
// engine is expected to produce. It is immutable once built; Args returns
// a copy so callers cannot mutate the original.
type Invocation struct {
	args       []string
	outputPath string
}

// Args returns a copy of the ordered argument list.
func (i *Invocation) Args() []string {
	out := make([]string, len(i.args))
	copy(out, i.args)
	return out
}

// OutputPath returns the path the engine must produce on success.
func (i *Invocation) OutputPath() string {
	return i.outputPath
}

// NewOverlayInvocation builds the engine invocation that composites the
// logo onto the base video. The fixed encoding parameters re-encode video
// with libx264 at the ultrafast preset and CRF 23, copy the audio stream
// unmodified, force single-threaded encoding for predictable peak memory
// on constrained hosts, bound the muxing queue, and always overwrite the
// destination. A looping logo input is preceded by an indefinite
// stream_loop flag.
func NewOverlayInvocation(videoPath string, logoPath string, outputPath string, kind model.LogoKind) *Invocation {
	args := []string{"-y", "-i", videoPath}
	graph := staticFilterGraph
	if kind == model.LogoLooping {
		args = append(args, "-stream_loop", "-1")
		graph = loopingFilterGraph
	}
	args = append(args,
		"-i", logoPath,
		"-filter_complex", graph,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-threads", "1",
		"-max_muxing_queue_size", "1024",
		"-c:a", "copy",
		outputPath,
	)
	return &Invocation{args: args, outputPath: outputPath}
}
