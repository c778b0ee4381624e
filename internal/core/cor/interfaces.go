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

// Package cor (Chain of Responsibility) provides the fundamental building
// blocks for creating workflows: commands, chains of commands, and the
// shared context that carries state between them. This file defines the
// interfaces that govern all components of the pattern.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are constant keys used to manage the primary data flow
// within a BaseChain: the value a command writes under CtxOut becomes the
// CtxIn value of the next command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It acts as a property bag for a single workflow execution, carrying
// data, errors, and the list of transient files to reclaim.
type Context interface {
	// SetContext sets the standard Go context.Context, used for
	// cancellation signals and OpenTelemetry trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.Context.
	GetContext() context.Context

	// Add stores a key-value pair in the context. Returns the Context to
	// allow fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error produced by a command, keyed by the
	// command's name.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the workflow.
	GetErrors() map[string]error

	// Get retrieves a value from the context by its key.
	Get(key string) interface{}

	// Remove deletes a key-value pair from the context.
	Remove(key string)

	// HasErrors reports whether any errors have been recorded.
	HasErrors() bool

	// AddTempFile tracks a transient file created during the workflow so
	// it can be removed when the context is closed.
	AddTempFile(file string)

	// GetTempFiles returns all tracked transient file paths.
	GetTempFiles() []string

	// Close removes every tracked transient file. Deletion failures are
	// logged and never raised past this boundary.
	Close()
}

// Executable is any object with core execution logic driven by a Context.
type Executable interface {
	Execute(context Context)
}

// Command represents an atomic, testable unit of work. It is the
// fundamental building block of a workflow.
type Command interface {
	Executable

	// GetName returns the unique name of the command, used for logging
	// and telemetry.
	GetName() string

	// GetInputParam returns the key the command reads its primary input
	// from.
	GetInputParam() string

	// GetOutputParam returns the key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable checks whether the command can run with the current
	// state of the Context.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns a metric counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns a metric counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, which
// allows chains to be nested within other chains.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing
	// after one of its commands records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
