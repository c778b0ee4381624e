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

// This file defines the job executor: it runs a built invocation as a
// child process under a hard wall-clock timeout, captures the diagnostic
// output streams fully into memory, and classifies the outcome into
// exactly one tagged result. There is no retry; a single attempt bounded
// by the timeout is the full policy.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds worst-case server occupancy per job while still
// tolerating large inputs.
const DefaultTimeout = 600 * time.Second

// killGracePeriod is how long a timed-out process gets between the
// interrupt signal and the forced kill.
const killGracePeriod = 5 * time.Second

// Outcome tags the result of a single engine execution attempt.
type Outcome int

const (
	// OutcomeSuccess means the process exited zero and the declared
	// output file exists on disk.
	OutcomeSuccess Outcome = iota
	// OutcomeTimedOut means the process overran its wall-clock budget and
	// was terminated.
	OutcomeTimedOut
	// OutcomeProcessFailed means the process exited non-zero, or exited
	// zero without producing its output file.
	OutcomeProcessFailed
	// OutcomeEngineNotFound means the engine binary could not be located
	// or launched.
	OutcomeEngineNotFound
)

// String returns a short name for the outcome, used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeProcessFailed:
		return "process_failed"
	case OutcomeEngineNotFound:
		return "engine_not_found"
	}
	return "unknown"
}

// Result is the tagged outcome of one execution attempt. Exactly one
// variant is produced per attempt; there is no partial-success state.
type Result struct {
	Outcome    Outcome
	OutputPath string // Set only on success.
	ExitCode   int    // Set on process failure; -1 when the process never ran to completion.
	Stderr     string // Captured diagnostic text for process failures.
}

// Executor runs engine invocations as child processes. The zero value is
// not usable; construct with NewExecutor.
type Executor struct {
	Path    string        // Path to the engine binary, or a bare name resolved via PATH.
	Timeout time.Duration // Wall-clock budget for one execution.
}

// NewExecutor constructs an executor for the given binary path. An empty
// path falls back to "ffmpeg" on the PATH and a non-positive timeout
// falls back to the ten-minute default.
func NewExecutor(path string, timeout time.Duration) *Executor {
	if path == "" {
		path = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{Path: path, Timeout: timeout}
}

// Execute spawns the engine with the invocation's arguments and blocks
// until it exits or times out. The wall-clock timeout is the only
// cancellation trigger for the run: the caller's context contributes its
// values (trace propagation) but not its cancellation, so a client
// disconnect mid-encode never kills the process or discards a finished
// output. Both output streams are captured fully in memory; they carry
// diagnostic text only, never media. The run is atomic from the
// pipeline's point of view: an exit code of zero without the declared
// output file on disk is a process failure, never a success.
func (e *Executor) Execute(ctx context.Context, invocation *Invocation) Result {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.Path, invocation.Args()...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// On timeout, interrupt first so the engine can tear down its muxer;
	// WaitDelay forces the kill if it ignores the signal.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = killGracePeriod

	err := cmd.Run()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{Outcome: OutcomeTimedOut, ExitCode: -1, Stderr: stderr.String()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Outcome: OutcomeProcessFailed, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return Result{Outcome: OutcomeEngineNotFound, ExitCode: -1}
		}
		// The process could not be started for some other reason.
		return Result{Outcome: OutcomeProcessFailed, ExitCode: -1, Stderr: err.Error()}
	}

	if _, statErr := os.Stat(invocation.OutputPath()); statErr != nil {
		return Result{
			Outcome:  OutcomeProcessFailed,
			ExitCode: 0,
			Stderr:   fmt.Sprintf("engine exited 0 but output file %s is missing", invocation.OutputPath()),
		}
	}
	return Result{Outcome: OutcomeSuccess, OutputPath: invocation.OutputPath()}
}
