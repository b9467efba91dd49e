// Package runtime contains the orchestrator core: it drives the stage
// graph through its state machine, binds the runner, the artifact
// store, the trust exchange and the registry, and aggregates the final
// run report.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/pipeline"
	"github.com/aretw0/gantry/pkg/ports"
)

// Orchestrator executes a pipeline run end to end.
//
// Stages execute sequentially in plan order. A stage starts only when
// every `needs` stage reached Success; a failed dependency skips the
// dependent transitively, and once the run is terminal no further
// stage executes. Publish stages are handled by the orchestrator
// itself so the trust token never crosses a port boundary other than
// the registry call that consumes it.
type Orchestrator struct {
	pipe     *pipeline.Pipeline
	runner   ports.StageRunner
	store    ports.ArtifactStore
	trust    ports.TokenIssuer
	registry ports.Registry
	gate     ports.ApprovalGate
	locker   ports.RunLocker
	filter   domain.TriggerFilter
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	lockTTL  time.Duration
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithApprovalGate wires the gate consulted by gated stages.
// Without one, gated stages fail rather than run unapproved.
func WithApprovalGate(gate ports.ApprovalGate) Option {
	return func(o *Orchestrator) { o.gate = gate }
}

// WithRunLocker serializes runs per target branch.
func WithRunLocker(locker ports.RunLocker, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

// WithTriggerFilter sets the event/branch filter. The zero filter
// matches everything and never allows publish.
func WithTriggerFilter(filter domain.TriggerFilter) Option {
	return func(o *Orchestrator) { o.filter = filter }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) { o.hooks = hooks }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator binds the pipeline to its collaborators.
func NewOrchestrator(
	pipe *pipeline.Pipeline,
	runner ports.StageRunner,
	store ports.ArtifactStore,
	trust ports.TokenIssuer,
	registry ports.Registry,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		pipe:     pipe,
		runner:   runner,
		store:    store,
		trust:    trust,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ShouldRun reports whether the trigger starts a run at all.
func (o *Orchestrator) ShouldRun(trigger domain.Trigger) bool {
	return o.filter.Matches(trigger)
}

// Execute runs the pipeline for the given run context.
//
// The returned error is non-nil only for configuration problems
// (malformed graph) or infrastructure faults; stage failures are
// reported through the Report with a Failed status.
func (o *Orchestrator) Execute(ctx context.Context, run domain.RunContext) (*Report, error) {
	plan, err := o.pipe.Plan()
	if err != nil {
		return nil, err
	}

	if o.locker != nil {
		unlock, err := o.locker.Lock(ctx, run.Trigger.Branch, o.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer unlock(context.WithoutCancel(ctx))
	}

	started := time.Now()
	report := &Report{
		RunID:   run.RunID,
		Trigger: run.Trigger,
		Status:  domain.RunRunning,
	}
	statuses := make(map[string]domain.StageStatus, len(plan))
	fullRun := o.filter.AllowsPublish(run.Trigger)
	terminal := false

	for _, stage := range plan {
		switch {
		case terminal:
			o.skip(ctx, report, statuses, stage, run, "pipeline already failed")
			continue
		case !o.depsSucceeded(stage, statuses):
			o.skip(ctx, report, statuses, stage, run, "dependency not successful")
			continue
		case stage.Publish != nil && !fullRun:
			o.skip(ctx, report, statuses, stage, run, "trigger does not allow publish")
			continue
		}

		if stage.Gated() {
			if err := o.awaitApproval(ctx, run, stage); err != nil {
				if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
					// Cancelled while suspended: no side effects yet.
					report.Status = domain.RunFailed
					report.Duration = time.Since(started)
					return report, err
				}
				o.record(ctx, report, statuses, run, domain.StageResult{
					Stage:       stage.Name,
					Status:      domain.StageFailed,
					Err:         err,
					ErrorDetail: err.Error(),
				})
				terminal = true
				continue
			}
		}

		statuses[stage.Name] = domain.StageRunning
		o.emitStage(ctx, domain.EventStageStart, run, stage.Name, domain.StageRunning)
		o.logger.Info("stage started", "run_id", run.RunID, "stage", stage.Name)

		var result domain.StageResult
		if stage.Publish != nil {
			result = o.publish(ctx, stage, run, report)
		} else {
			result, err = o.runner.Run(ctx, stage, run)
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", stage.Name, err)
			}
		}

		o.record(ctx, report, statuses, run, result)
		if result.Status == domain.StageFailed {
			terminal = true
		}
	}

	report.Status = domain.RunSucceeded
	for _, r := range report.Stages {
		if r.Status == domain.StageFailed {
			report.Status = domain.RunFailed
			break
		}
	}
	report.Duration = time.Since(started)

	if o.hooks.OnRunFinish != nil {
		o.hooks.OnRunFinish(ctx, &domain.RunEvent{
			Timestamp: time.Now(),
			RunID:     run.RunID,
			Status:    report.Status,
			Duration:  report.Duration,
		})
	}
	o.logger.Info("run finished", "run_id", run.RunID, "status", report.Status)
	return report, nil
}

func (o *Orchestrator) depsSucceeded(stage domain.Stage, statuses map[string]domain.StageStatus) bool {
	for _, dep := range stage.Needs {
		if statuses[dep] != domain.StageSuccess {
			return false
		}
	}
	return true
}

func (o *Orchestrator) awaitApproval(ctx context.Context, run domain.RunContext, stage domain.Stage) error {
	if o.gate == nil {
		return fmt.Errorf("stage %q requires environment %q but no approval gate is configured",
			stage.Name, stage.Environment)
	}
	o.logger.Info("awaiting approval", "run_id", run.RunID,
		"stage", stage.Name, "environment", stage.Environment)
	return o.gate.Wait(ctx, run, stage.Environment)
}

func (o *Orchestrator) skip(ctx context.Context, report *Report, statuses map[string]domain.StageStatus, stage domain.Stage, run domain.RunContext, reason string) {
	o.logger.Info("stage skipped", "run_id", run.RunID, "stage", stage.Name, "reason", reason)
	o.record(ctx, report, statuses, run, domain.StageResult{
		Stage:  stage.Name,
		Status: domain.StageSkipped,
	})
}

func (o *Orchestrator) record(ctx context.Context, report *Report, statuses map[string]domain.StageStatus, run domain.RunContext, result domain.StageResult) {
	statuses[result.Stage] = result.Status
	report.Stages = append(report.Stages, result)
	if result.DuplicatePublish {
		report.DuplicatePublish = true
	}
	o.emitStage(ctx, domain.EventStageFinish, run, result.Stage, result.Status)
}

func (o *Orchestrator) emitStage(ctx context.Context, kind domain.EventType, run domain.RunContext, stage string, status domain.StageStatus) {
	var hook func(context.Context, *domain.StageEvent)
	switch kind {
	case domain.EventStageStart:
		hook = o.hooks.OnStageStart
	case domain.EventStageFinish:
		hook = o.hooks.OnStageFinish
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StageEvent{
		Timestamp: time.Now(),
		Type:      kind,
		RunID:     run.RunID,
		Stage:     stage,
		Status:    status,
	})
}

// publish drives the trusted-publish exchange for one stage: fetch the
// input artifacts, trade identity for a single-use token, and push
// everything to the registry in one call.
func (o *Orchestrator) publish(ctx context.Context, stage domain.Stage, run domain.RunContext, report *Report) domain.StageResult {
	started := time.Now()
	result := domain.StageResult{Stage: stage.Name}

	fail := func(classify error, detail string) domain.StageResult {
		result.Status = domain.StageFailed
		result.Err = classify
		result.ErrorDetail = detail
		result.Duration = time.Since(started)
		return result
	}

	if run.Environment != stage.Environment {
		return fail(domain.ErrUnauthorizedEnvironment,
			fmt.Sprintf("run environment %q does not match stage environment %q",
				run.Environment, stage.Environment))
	}

	artifacts := make([]domain.Artifact, 0, len(stage.Inputs))
	for _, input := range stage.Inputs {
		art, err := o.store.Download(ctx, input)
		if err != nil {
			if errors.Is(err, domain.ErrArtifactNotFound) {
				return fail(domain.ErrMissingInput,
					fmt.Sprintf("publish input %q was never produced", input))
			}
			return fail(err, fmt.Sprintf("download %q: %v", input, err))
		}
		artifacts = append(artifacts, art)
	}

	// Token is requested per attempt, consumed by exactly one registry
	// call, and discarded with this stack frame. It is never stored on
	// the orchestrator or the report.
	token, err := o.trust.IssueToken(ctx, stage.Environment, stage.Publish.Audience)
	if err != nil {
		return fail(err, fmt.Sprintf("trust exchange: %v", err))
	}

	if o.hooks.OnPublishAttempt != nil {
		o.hooks.OnPublishAttempt(ctx, &domain.PublishEvent{
			Timestamp: time.Now(),
			RunID:     run.RunID,
			Audience:  stage.Publish.Audience,
		})
	}

	receipt, err := o.registry.Publish(ctx, token, artifacts)
	if err != nil {
		// Once the registry call has started, a cancellation or
		// timeout leaves the external state unknown. Surface that
		// distinctly so an operator never blindly re-triggers.
		if ctx.Err() != nil {
			report.Indeterminate = true
			return fail(err, "publish interrupted mid-flight; registry state unknown, manual check required")
		}
		return fail(err, fmt.Sprintf("registry publish: %v", err))
	}

	result.Status = domain.StageSuccess
	result.DuplicatePublish = receipt.Duplicate
	result.Duration = time.Since(started)
	for _, art := range artifacts {
		result.Produced = append(result.Produced, domain.ArtifactInfo{
			Name:     art.Name,
			Producer: art.Producer,
			Checksum: art.Checksum,
			Size:     int64(len(art.Content)),
		})
	}
	if receipt.Duplicate {
		o.logger.Warn("registry reported version already exists; treating as published",
			"run_id", run.RunID, "stage", stage.Name)
	}
	return result
}
