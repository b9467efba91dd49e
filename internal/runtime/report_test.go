package runtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/gantry/internal/runtime"
	"github.com/aretw0/gantry/pkg/domain"
)

func TestReport_Markdown(t *testing.T) {
	report := &runtime.Report{
		RunID:   "run-42",
		Trigger: domain.Trigger{Event: domain.EventPush, Branch: "main"},
		Status:  domain.RunFailed,
		Stages: []domain.StageResult{
			{
				Stage:  "build",
				Status: domain.StageSuccess,
				Produced: []domain.ArtifactInfo{
					{Name: "wheel"}, {Name: "sdist"},
				},
				Duration: 1200 * time.Millisecond,
			},
			{
				Stage:       "verify",
				Status:      domain.StageFailed,
				ErrorDetail: "checksum mismatch for wheel",
				Output:      "expected abc got def",
			},
			{Stage: "publish", Status: domain.StageSkipped},
		},
		Duration: 2 * time.Second,
	}

	md := report.Markdown()
	assert.Contains(t, md, "# Run run-42 — failed")
	assert.Contains(t, md, "| build | success | wheel, sdist |")
	assert.Contains(t, md, "| publish | skipped |")
	assert.Contains(t, md, "## verify failure")
	assert.Contains(t, md, "checksum mismatch for wheel")
	assert.Contains(t, md, "expected abc got def")
	// Successful and skipped stages get no failure section.
	assert.NotContains(t, md, "## build failure")
}

func TestReport_ExitCode(t *testing.T) {
	assert.Equal(t, 0, (&runtime.Report{Status: domain.RunSucceeded}).ExitCode())
	assert.Equal(t, 1, (&runtime.Report{Status: domain.RunFailed}).ExitCode())
}
