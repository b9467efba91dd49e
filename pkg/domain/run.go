package domain

import "time"

// EventKind is the kind of repository event that triggered a run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// Trigger is the repository event a run was started for.
type Trigger struct {
	Event  EventKind `json:"event"`
	Branch string    `json:"branch"`
}

// TriggerFilter decides which triggers start a run and which of those
// are allowed to reach the publish stage. A push to one of the
// PublishBranches runs the full pipeline; any other matching trigger
// runs the subset without publish (and without gated stages).
type TriggerFilter struct {
	Events          []EventKind `json:"events" yaml:"events"`
	Branches        []string    `json:"branches" yaml:"branches"`
	PublishBranches []string    `json:"publish_branches" yaml:"publish_branches"`
}

// Matches reports whether the trigger starts a run at all.
func (f TriggerFilter) Matches(t Trigger) bool {
	if len(f.Events) > 0 && !containsEvent(f.Events, t.Event) {
		return false
	}
	if len(f.Branches) > 0 && !containsString(f.Branches, t.Branch) {
		return false
	}
	return true
}

// AllowsPublish reports whether the trigger may run publish stages.
func (f TriggerFilter) AllowsPublish(t Trigger) bool {
	return t.Event == EventPush && containsString(f.PublishBranches, t.Branch)
}

func containsEvent(list []EventKind, e EventKind) bool {
	for _, v := range list {
		if v == e {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RunContext is the immutable per-run metadata passed to every stage.
type RunContext struct {
	RunID       string    `json:"run_id"`
	Trigger     Trigger   `json:"trigger"`
	Environment string    `json:"environment,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// StageStatus is the lifecycle status of a single stage.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageSuccess StageStatus = "success"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s StageStatus) Terminal() bool {
	return s == StageSuccess || s == StageFailed || s == StageSkipped
}

// RunStatus is the aggregate status of a pipeline run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// StageResult is produced when a stage finishes (or is skipped).
type StageResult struct {
	Stage    string         `json:"stage"`
	Status   StageStatus    `json:"status"`
	Produced []ArtifactInfo `json:"produced,omitempty"`

	// Output is the captured stdout/stderr of the command-set.
	Output string `json:"output,omitempty"`

	// ErrorDetail is the human-readable failure diagnostic. Empty
	// unless Status is StageFailed.
	ErrorDetail string `json:"error_detail,omitempty"`

	// Err is the classifying error (ErrMissingInput, ErrStageTimeout, ...).
	Err error `json:"-"`

	// Committed is set by the self-modifying stage when it pushed a
	// commit back; a clean tree leaves it false.
	Committed bool `json:"committed,omitempty"`

	// DuplicatePublish marks the benign "version already exists"
	// registry outcome, folded into Success but reported distinctly.
	DuplicatePublish bool `json:"duplicate_publish,omitempty"`

	Duration time.Duration `json:"duration,omitempty"`
}
