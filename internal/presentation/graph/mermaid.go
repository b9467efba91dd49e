package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/gantry/pkg/domain"
)

// Overlay contains run state to visualize on the graph.
type Overlay struct {
	Statuses map[string]domain.StageStatus
}

// GenerateMermaid produces a Mermaid flowchart from the planned stages.
// It applies semantic styling:
// - Publish: [[Subroutine]]
// - Commit (self-modifying): [/Parallelogram/]
// - Default: [Rectangle]
// Gated stages are annotated with their environment, timeouts with a
// clock. Overlay statuses, if provided, color the nodes.
func GenerateMermaid(stages []domain.Stage, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, stage := range stages {
		safeID := sanitizeMermaidID(stage.Name)

		opener, closer := "[", "]"
		switch {
		case stage.Publish != nil:
			opener, closer = "[[", "]]"
		case stage.Commit != nil:
			opener, closer = "[/", "/]"
		}

		label := stage.Name
		if stage.Gated() {
			label = fmt.Sprintf("%s <br/> 🔒 %s", label, stage.Environment)
		}
		if stage.Timeout > 0 {
			label = fmt.Sprintf("%s <br/> ⏱️ %s", label, stage.Timeout)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		for _, dep := range stage.Needs {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(dep), safeID))
		}
	}

	if overlay != nil && len(overlay.Statuses) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for high-contrast regardless of theme.
		sb.WriteString("    classDef success fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eceff1,stroke:#90a4ae,stroke-width:1px,color:#000;\n")

		for _, stage := range stages {
			status, ok := overlay.Statuses[stage.Name]
			if !ok {
				continue
			}
			var class string
			switch status {
			case domain.StageSuccess:
				class = "success"
			case domain.StageFailed:
				class = "failed"
			case domain.StageSkipped:
				class = "skipped"
			default:
				continue
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(stage.Name), class))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
