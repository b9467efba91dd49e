package runtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
)

// Report is the aggregated outcome of one pipeline run. It always
// lists every stage's status; failed stages carry their captured
// diagnostic output, and ambiguous publish outcomes are flagged
// distinctly from clean failures.
type Report struct {
	RunID    string               `json:"run_id"`
	Trigger  domain.Trigger       `json:"trigger"`
	Status   domain.RunStatus     `json:"status"`
	Stages   []domain.StageResult `json:"stages"`
	Duration time.Duration        `json:"duration"`

	// DuplicatePublish flags the benign "version already exists"
	// outcome: the run succeeded, but nothing new was uploaded.
	DuplicatePublish bool `json:"duplicate_publish,omitempty"`

	// Indeterminate flags a run interrupted after the registry call
	// began: external state is unknown and must be checked manually
	// before any re-trigger.
	Indeterminate bool `json:"indeterminate,omitempty"`
}

// ExitCode maps the report to the process exit convention:
// 0 succeeded, 1 failed. (Configuration errors exit 2 before a report
// exists.)
func (r *Report) ExitCode() int {
	if r.Status == domain.RunSucceeded {
		return 0
	}
	return 1
}

// Markdown renders the operator-facing run summary.
func (r *Report) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Run %s — %s\n\n", r.RunID, r.Status)
	fmt.Fprintf(&sb, "Trigger: `%s` on `%s` · Duration: %s\n\n",
		r.Trigger.Event, r.Trigger.Branch, r.Duration.Round(time.Millisecond))

	sb.WriteString("| Stage | Status | Artifacts | Duration |\n")
	sb.WriteString("|-------|--------|-----------|----------|\n")
	for _, stage := range r.Stages {
		names := make([]string, 0, len(stage.Produced))
		for _, art := range stage.Produced {
			names = append(names, art.Name)
		}
		artifacts := strings.Join(names, ", ")
		if artifacts == "" {
			artifacts = "—"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			stage.Stage, stage.Status, artifacts, stage.Duration.Round(time.Millisecond))
	}

	if r.DuplicatePublish {
		sb.WriteString("\n> **Note:** the registry reported this version as already published. " +
			"The run is successful, but no new files were uploaded.\n")
	}
	if r.Indeterminate {
		sb.WriteString("\n> **Warning:** the run was interrupted after publishing began. " +
			"The registry state is unknown; verify manually before re-triggering.\n")
	}

	for _, stage := range r.Stages {
		if stage.Status != domain.StageFailed {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s failure\n\n", stage.Stage)
		if stage.ErrorDetail != "" {
			fmt.Fprintf(&sb, "%s\n", stage.ErrorDetail)
		}
		if out := strings.TrimSpace(stage.Output); out != "" {
			fmt.Fprintf(&sb, "\n```\n%s\n```\n", out)
		}
	}

	return sb.String()
}
