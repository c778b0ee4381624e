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

// This file implements the engine availability probe backing the health
// endpoint. The probe runs the engine's version-query flag under a short
// timeout. Probe executions are rate limited so repeated health checks
// serve the cached answer instead of stampeding the host with processes.
package engine

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// probeTimeout bounds a single version-query execution.
const probeTimeout = 5 * time.Second

// HealthProbe answers whether the engine binary is runnable. Any failure
// to run the version query is reported as unavailable, never raised.
type HealthProbe struct {
	path    string
	limiter *rate.Limiter

	mu        sync.Mutex
	checked   bool
	available bool
}

// NewHealthProbe constructs a probe for the executor's binary that runs
// the version query at most once per interval.
func NewHealthProbe(executor *Executor, interval time.Duration) *HealthProbe {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthProbe{
		path:    executor.Path,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Available reports whether the engine binary can be executed. The first
// call always probes; later calls within the rate limit interval return
// the cached answer.
func (p *HealthProbe) Available(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.limiter.Allow() && p.checked {
		return p.available
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.path, "-version")
	p.available = cmd.Run() == nil
	p.checked = true
	return p.available
}
