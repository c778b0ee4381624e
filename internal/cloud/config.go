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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. The configuration is constructed once at startup
// and passed by reference into the components that need it; there is no
// package-level mutable configuration state.
//
// Structs:
//   - Storage: local directories for transient and durable artifacts.
//   - Engine: the external video-processing engine (ffmpeg) settings.
//   - Retention: garbage collection policy for the durable output area.
//   - Config: the top-level struct that aggregates all other sections.
package cloud

import (
	"time"

	"github.com/jaycherian/gcp-go-video-watermark/internal/core/model"
)

// Storage holds the two local directories the pipeline writes to. The
// transient directory holds per-session inputs (and outputs in streaming
// mode); the output directory holds finished files served at /downloads.
type Storage struct {
	TempDir   string `toml:"temp_dir"`   // Working area for per-session transient files.
	OutputDir string `toml:"output_dir"` // Durable area for retrievable outputs.
}

// Engine holds the settings for the external processing engine invocation.
type Engine struct {
	Path                   string `toml:"path"`                      // Path to the engine binary, or a bare name resolved via PATH.
	TimeoutInSeconds       int    `toml:"timeout_in_seconds"`        // Wall-clock budget for a single engine run.
	ProbeIntervalInSeconds int    `toml:"probe_interval_in_seconds"` // Minimum interval between health probe executions.
}

// Timeout returns the engine execution budget as a duration.
func (e *Engine) Timeout() time.Duration {
	return time.Duration(e.TimeoutInSeconds) * time.Second
}

// Retention defines the garbage collection policy for the durable output
// area when running in download-URL delivery mode. Outputs older than the
// maximum age are removed by a background sweeper.
type Retention struct {
	MaxAgeInSeconds        int `toml:"max_age_in_seconds"`        // Age past which an output is reclaimed.
	SweepIntervalInSeconds int `toml:"sweep_interval_in_seconds"` // How often the sweeper runs.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other sections.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string             `toml:"name"`              // The name of the application, used as the telemetry service name.
		GoogleProjectId string             `toml:"google_project_id"` // The Google Cloud project ID for trace and metric export.
		ThreadPoolSize  int                `toml:"thread_pool_size"`  // The size of the worker pool used for engine executions.
		DeliveryMode    model.DeliveryMode `toml:"delivery_mode"`     // "url" or "stream".
	} `toml:"application"`
	Storage   Storage   `toml:"storage"`
	Engine    Engine    `toml:"engine"`
	Retention Retention `toml:"retention"`
}

// NewConfig creates a Config populated with working defaults. The TOML
// loader overwrites any value present in the configuration files, so the
// defaults only apply to keys the files omit.
func NewConfig() *Config {
	out := &Config{}
	out.Application.Name = "video-watermark"
	out.Application.ThreadPoolSize = 4
	out.Application.DeliveryMode = model.DeliveryModeURL
	out.Storage.TempDir = "temp_files"
	out.Storage.OutputDir = "output_files"
	out.Engine.Path = "ffmpeg"
	out.Engine.TimeoutInSeconds = 600
	out.Engine.ProbeIntervalInSeconds = 30
	out.Retention.MaxAgeInSeconds = 3600
	out.Retention.SweepIntervalInSeconds = 300
	return out
}
