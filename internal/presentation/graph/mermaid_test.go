package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aretw0/gantry/internal/presentation/graph"
	"github.com/aretw0/gantry/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		stages   []domain.Stage
		overlay  *graph.Overlay
		contains []string
	}{
		{
			name: "Publish Stage Shape",
			stages: []domain.Stage{
				{Name: "publish", Environment: "pypi", Publish: &domain.PublishSpec{Audience: "registry"}},
			},
			contains: []string{
				`publish[["publish <br/> 🔒 pypi"]]`,
			},
		},
		{
			name: "Commit Stage Shape",
			stages: []domain.Stage{
				{Name: "format", Commit: &domain.CommitSpec{Message: "fmt"}},
			},
			contains: []string{
				`format[/"format"/]`,
			},
		},
		{
			name: "Dependency Edges",
			stages: []domain.Stage{
				{Name: "build"},
				{Name: "verify", Needs: []string{"build"}},
			},
			contains: []string{
				"build --> verify",
			},
		},
		{
			name: "Timeout Annotation",
			stages: []domain.Stage{
				{Name: "build", Timeout: 5 * time.Minute},
			},
			contains: []string{
				`build["build <br/> ⏱️ 5m0s"]`,
			},
		},
		{
			name: "ID Sanitization",
			stages: []domain.Stage{
				{Name: "lint-check"},
			},
			contains: []string{
				`lint_check["lint-check"]`,
			},
		},
		{
			name: "Status Overlay",
			stages: []domain.Stage{
				{Name: "build"},
				{Name: "verify", Needs: []string{"build"}},
			},
			overlay: &graph.Overlay{Statuses: map[string]domain.StageStatus{
				"build":  domain.StageFailed,
				"verify": domain.StageSkipped,
			}},
			contains: []string{
				"class build failed;",
				"class verify skipped;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.stages, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}
