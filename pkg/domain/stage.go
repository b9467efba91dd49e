package domain

import "time"

// Command is a single program invocation of a stage's command-set.
// Args are passed verbatim; no shell interpretation happens.
type Command struct {
	Program string   `json:"program" yaml:"program"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// PublishSpec marks a stage as the registry publish step.
// Audience is the identity the trust token is scoped to (the target registry).
type PublishSpec struct {
	Audience string `json:"audience" yaml:"audience"`
}

// CommitSpec marks a stage as self-modifying: after its command-set
// succeeds, the working tree is committed and pushed back, but only if
// the commands actually changed something. An already-clean tree must
// produce no commit, otherwise the push re-fires the pipeline trigger
// forever.
type CommitSpec struct {
	Message string   `json:"message" yaml:"message"`
	Paths   []string `json:"paths,omitempty" yaml:"paths,omitempty"`
}

// Stage is a named unit of work in the pipeline graph.
//
// Needs lists the stages that must reach Success before this one may
// start. Inputs name the artifacts this stage consumes (each must be an
// output of some upstream stage); Outputs name the artifacts it promises
// to produce. Environment, when non-empty, gates the stage behind an
// external approval for that environment.
type Stage struct {
	Name     string        `json:"name" yaml:"name"`
	Needs    []string      `json:"needs,omitempty" yaml:"needs,omitempty"`
	Inputs   []string      `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []string      `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Commands []Command     `json:"commands,omitempty" yaml:"commands,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Environment names the approval environment required before the
	// stage may run. Empty means ungated.
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// Publish is set on the registry publish stage.
	Publish *PublishSpec `json:"publish,omitempty" yaml:"publish,omitempty"`

	// Commit is set on the self-modifying format-and-commit stage.
	Commit *CommitSpec `json:"commit,omitempty" yaml:"commit,omitempty"`
}

// Gated reports whether the stage requires an approval environment.
func (s Stage) Gated() bool {
	return s.Environment != ""
}
