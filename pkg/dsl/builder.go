package dsl

import (
	"fmt"

	"github.com/aretw0/gantry/pkg/domain"
)

// Builder manages the pipeline construction. Stages keep their
// definition order, which is also the planner's tie-break order.
type Builder struct {
	order  []string
	stages map[string]*StageBuilder
}

// New creates a new pipeline builder.
func New() *Builder {
	return &Builder{
		stages: make(map[string]*StageBuilder),
	}
}

// Stage creates a new stage in the pipeline.
// If the stage already exists, it returns the existing builder.
func (b *Builder) Stage(name string) *StageBuilder {
	if sb, ok := b.stages[name]; ok {
		return sb
	}
	sb := &StageBuilder{
		stage: domain.Stage{
			Name: name,
		},
		builder: b,
	}
	b.order = append(b.order, name)
	b.stages[name] = sb
	return sb
}

// Build compiles the pipeline into its stage list, in definition
// order. Graph problems surface later, when the stages are registered.
func (b *Builder) Build() ([]domain.Stage, error) {
	stages := make([]domain.Stage, 0, len(b.order))
	for _, name := range b.order {
		sb := b.stages[name]
		if sb.err != nil {
			return nil, fmt.Errorf("stage %q: %w", name, sb.err)
		}
		stages = append(stages, sb.stage)
	}
	return stages, nil
}
