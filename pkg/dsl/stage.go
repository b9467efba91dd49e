package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
)

// StageBuilder provides a fluent API for configuring a stage.
type StageBuilder struct {
	stage   domain.Stage
	builder *Builder
	err     error
}

// Run appends a command to the stage.
func (s *StageBuilder) Run(program string, args ...string) *StageBuilder {
	s.stage.Commands = append(s.stage.Commands, domain.Command{
		Program: program,
		Args:    args,
	})
	return s
}

// Needs declares the stages this one depends on.
func (s *StageBuilder) Needs(stages ...string) *StageBuilder {
	s.stage.Needs = append(s.stage.Needs, stages...)
	return s
}

// Inputs declares the artifacts the stage consumes.
func (s *StageBuilder) Inputs(names ...string) *StageBuilder {
	s.stage.Inputs = append(s.stage.Inputs, names...)
	return s
}

// Outputs declares the artifacts the stage must produce.
func (s *StageBuilder) Outputs(names ...string) *StageBuilder {
	s.stage.Outputs = append(s.stage.Outputs, names...)
	return s
}

// Timeout bounds the stage's total command execution time.
func (s *StageBuilder) Timeout(d time.Duration) *StageBuilder {
	s.stage.Timeout = d
	return s
}

// Publish marks the stage as a registry publish for the given audience
// and environment. Publish stages run no commands.
func (s *StageBuilder) Publish(audience, environment string) *StageBuilder {
	if len(s.stage.Commands) > 0 {
		s.err = fmt.Errorf("publish stages cannot run commands")
		return s
	}
	s.stage.Publish = &domain.PublishSpec{Audience: audience}
	s.stage.Environment = environment
	return s
}

// Commit marks the stage as self-modifying: after its commands run,
// changed files are committed back to the source branch.
func (s *StageBuilder) Commit(message string, paths ...string) *StageBuilder {
	s.stage.Commit = &domain.CommitSpec{
		Message: message,
		Paths:   paths,
	}
	return s
}

// Build returns the underlying domain.Stage.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StageBuilder) Build() domain.Stage {
	return s.stage
}
