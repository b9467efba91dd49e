// Package pipeline models the stage dependency graph.
//
// The graph is explicit (stage name as index) rather than implied by
// declaration order, so the topological ordering guarantee is
// independently testable. Ties among independently runnable stages are
// broken by registration order: not load-bearing for correctness, but
// required for reproducible logs.
package pipeline

import (
	"fmt"

	"github.com/aretw0/gantry/pkg/domain"
)

// Pipeline is a directed acyclic graph of stages with explicit `needs`
// edges. Stages must be registered dependencies-first.
type Pipeline struct {
	stages map[string]domain.Stage
	order  []string // registration order
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{
		stages: make(map[string]domain.Stage),
	}
}

// Register adds a stage to the graph.
//
// It fails with domain.ErrDuplicateStage if the name is taken,
// domain.ErrUnknownDependency if a `needs` stage is not yet registered,
// domain.ErrCycle if adding the stage would close a cycle, and
// domain.ErrUnboundInput if the stage declares an input that no
// upstream stage outputs.
func (p *Pipeline) Register(stage domain.Stage) error {
	if stage.Name == "" {
		return fmt.Errorf("stage name is required")
	}
	if _, exists := p.stages[stage.Name]; exists {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateStage, stage.Name)
	}

	for _, dep := range stage.Needs {
		if dep == stage.Name {
			return fmt.Errorf("%w: %q depends on itself", domain.ErrCycle, stage.Name)
		}
		if _, ok := p.stages[dep]; !ok {
			return fmt.Errorf("%w: %q needs %q", domain.ErrUnknownDependency, stage.Name, dep)
		}
	}

	// Every declared input must be an output of some stage in the
	// transitive closure of Needs.
	upstream := p.upstreamOutputs(stage.Needs)
	for _, input := range stage.Inputs {
		if !upstream[input] {
			return fmt.Errorf("%w: stage %q input %q", domain.ErrUnboundInput, stage.Name, input)
		}
	}

	p.stages[stage.Name] = stage
	p.order = append(p.order, stage.Name)
	return nil
}

// upstreamOutputs walks the transitive dependency closure and collects
// every artifact name produced there.
func (p *Pipeline) upstreamOutputs(needs []string) map[string]bool {
	outputs := make(map[string]bool)
	seen := make(map[string]bool)
	queue := append([]string(nil), needs...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		stage, ok := p.stages[name]
		if !ok {
			continue
		}
		for _, out := range stage.Outputs {
			outputs[out] = true
		}
		queue = append(queue, stage.Needs...)
	}
	return outputs
}

// Stage returns a registered stage by name.
func (p *Pipeline) Stage(name string) (domain.Stage, bool) {
	s, ok := p.stages[name]
	return s, ok
}

// Stages returns all stages in registration order.
func (p *Pipeline) Stages() []domain.Stage {
	out := make([]domain.Stage, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.stages[name])
	}
	return out
}

// Len returns the number of registered stages.
func (p *Pipeline) Len() int {
	return len(p.order)
}

// Plan returns a topologically sorted execution order.
//
// Kahn's algorithm over the explicit graph; among stages that are
// simultaneously runnable the earliest-registered wins. Registration
// already rejects cycles, so the cycle check here is a defensive
// double-check and fails with domain.ErrCycle.
func (p *Pipeline) Plan() ([]domain.Stage, error) {
	indeg := make(map[string]int, len(p.stages))
	dependents := make(map[string][]string, len(p.stages))
	for _, name := range p.order {
		indeg[name] = len(p.stages[name].Needs)
		for _, dep := range p.stages[name].Needs {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	plan := make([]domain.Stage, 0, len(p.order))
	scheduled := make(map[string]bool, len(p.order))

	for len(plan) < len(p.order) {
		next := ""
		for _, name := range p.order {
			if !scheduled[name] && indeg[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("%w: %d stages unreachable", domain.ErrCycle, len(p.order)-len(plan))
		}
		scheduled[next] = true
		plan = append(plan, p.stages[next])
		for _, dep := range dependents[next] {
			indeg[dep]--
		}
	}

	return plan, nil
}

// Dependents returns the names of stages that (transitively) depend on
// the given stage. Used by the orchestrator to cascade skips.
func (p *Pipeline) Dependents(name string) []string {
	direct := make(map[string][]string, len(p.stages))
	for _, s := range p.stages {
		for _, dep := range s.Needs {
			direct[dep] = append(direct[dep], s.Name)
		}
	}

	var out []string
	seen := map[string]bool{}
	queue := append([]string(nil), direct[name]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
		queue = append(queue, direct[n]...)
	}
	return out
}
