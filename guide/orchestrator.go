// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package guide

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/studyguide/core"
	"github.com/poiesic/studyguide/progress"
)

// Driver generates one result per chunk and reports the running completed count.
// *generation.Driver implements it.
type Driver interface {
	Generate(ctx context.Context, chunks []core.Chunk, subject string, progress chan<- core.Progress) (core.Results, int)
}

// Orchestrator wires a Driver to a progress Reporter for each run.
type Orchestrator struct {
	driver Driver
	logger *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator around driver.
func NewOrchestrator(driver Driver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		driver: driver,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// Run generates a guide section for every chunk while renderer shows progress.
//
// The reporter for the run is stopped exactly once before Run returns, also
// when the driver panics. Run returns the ordered results and the final
// completed count.
func (o *Orchestrator) Run(ctx context.Context, chunks []core.Chunk, subject string, renderer progress.Renderer) (core.Results, int, error) {
	run, err := core.NewRun(subject, chunks)
	if err != nil {
		return nil, 0, err
	}
	if run.Size == 0 {
		return core.Results{}, 0, nil
	}

	reporter := progress.NewReporter(run.Size, renderer, progress.WithLogger(o.logger))
	reporter.Start(ctx)
	defer reporter.Stop()

	o.logger.Info("starting guide generation", "subject", run.Subject, "chunks", run.Size)
	start := time.Now()

	results, completed := o.driver.Generate(ctx, chunks, run.Subject, reporter.Events())

	o.logger.Info("guide generation complete",
		"subject", run.Subject,
		"completed", completed,
		"failed", results.AbsentCount(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return results, completed, nil
}
