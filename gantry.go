package gantry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/gantry/internal/runtime"
	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/adapters/process"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/pipeline"
	"github.com/aretw0/gantry/pkg/ports"
)

// Version of the gantry module.
var Version = "0.1.0"

// Report is the aggregated outcome of one run.
type Report = runtime.Report

// Engine is the high-level entry point for the gantry library.
// It wraps the internal orchestrator and provides a simplified API for
// embedding the pipeline in other programs.
type Engine struct {
	orchestrator *runtime.Orchestrator
	pipe         *pipeline.Pipeline

	store     ports.ArtifactStore
	runner    ports.StageRunner
	trust     ports.TokenIssuer
	registry  ports.Registry
	sourceDir string

	runtimeOpts []runtime.Option
	logger      *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithArtifactStore injects a custom artifact store, bypassing the
// default in-memory one.
func WithArtifactStore(store ports.ArtifactStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithStageRunner injects a custom stage runner.
func WithStageRunner(runner ports.StageRunner) Option {
	return func(e *Engine) { e.runner = runner }
}

// WithTokenIssuer injects the trust exchange client.
func WithTokenIssuer(trust ports.TokenIssuer) Option {
	return func(e *Engine) { e.trust = trust }
}

// WithRegistry injects the package index client.
func WithRegistry(registry ports.Registry) Option {
	return func(e *Engine) { e.registry = registry }
}

// WithApprovalGate wires the gate consulted by gated stages.
func WithApprovalGate(gate ports.ApprovalGate) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithApprovalGate(gate))
	}
}

// WithTriggerFilter sets the event and branch filter.
func WithTriggerFilter(filter domain.TriggerFilter) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithTriggerFilter(filter))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSourceDir sets the directory stage commands operate on
// (default "."). Ignored when a custom runner is injected.
func WithSourceDir(dir string) Option {
	return func(e *Engine) { e.sourceDir = dir }
}

// New initializes an Engine for the given stages.
// By default it runs stage commands as local processes, keeps
// artifacts in memory, and stands in for the trust exchange and the
// registry with in-memory fakes, which makes a bare Engine a dry-run
// harness. Production embedders inject real adapters.
func New(stages []domain.Stage, opts ...Option) (*Engine, error) {
	eng := &Engine{sourceDir: "."}
	for _, opt := range opts {
		opt(eng)
	}

	eng.pipe = pipeline.New()
	for _, stage := range stages {
		if err := eng.pipe.Register(stage); err != nil {
			return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
		}
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.runner == nil {
		eng.runner = process.NewRunner(eng.store, eng.sourceDir,
			process.WithLogger(eng.logger))
	}
	if eng.trust == nil {
		environments := make([]string, 0, 1)
		for _, stage := range stages {
			if stage.Environment != "" {
				environments = append(environments, stage.Environment)
			}
		}
		eng.trust = memory.NewIssuer(environments)
	}
	if eng.registry == nil {
		audience := "registry"
		for _, stage := range stages {
			if stage.Publish != nil {
				audience = stage.Publish.Audience
				break
			}
		}
		eng.registry = memory.NewRegistry(audience)
	}

	runtimeOpts := append([]runtime.Option{
		runtime.WithLogger(eng.logger),
	}, eng.runtimeOpts...)

	eng.orchestrator = runtime.NewOrchestrator(
		eng.pipe, eng.runner, eng.store, eng.trust, eng.registry,
		runtimeOpts...,
	)
	return eng, nil
}

// Run executes the pipeline for the given run context.
func (e *Engine) Run(ctx context.Context, run domain.RunContext) (*Report, error) {
	return e.orchestrator.Execute(ctx, run)
}

// ShouldRun reports whether the trigger matches the engine's filter.
func (e *Engine) ShouldRun(trigger domain.Trigger) bool {
	return e.orchestrator.ShouldRun(trigger)
}

// Plan returns the stages in execution order without running them.
func (e *Engine) Plan() ([]domain.Stage, error) {
	return e.pipe.Plan()
}

// Store returns the underlying artifact store.
func (e *Engine) Store() ports.ArtifactStore {
	return e.store
}
