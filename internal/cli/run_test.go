package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
)

const pipelineYAML = `
name: widget
environment: pypi
on:
  events: [push]
  branches: [main]
  publish_branches: [main]
stages:
  - name: build
    outputs: [wheel]
    commands: ["true"]
  - name: publish
    needs: [build]
    inputs: [wheel]
    environment: pypi
    publish:
      audience: registry
`

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecute_MissingConfigIsConfigError(t *testing.T) {
	code := Execute(context.Background(), RunOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
	})
	assert.Equal(t, ExitConfig, code)
}

func TestExecute_InvalidGraphIsConfigError(t *testing.T) {
	path := writePipeline(t, `
stages:
  - name: a
    needs: [b]
    commands: ["true"]
  - name: b
    needs: [a]
    commands: ["true"]
`)
	code := Execute(context.Background(), RunOptions{ConfigPath: path, SourceDir: t.TempDir()})
	assert.Equal(t, ExitConfig, code)
}

func TestExecute_UnmatchedTriggerIsNoOp(t *testing.T) {
	path := writePipeline(t, pipelineYAML)
	code := Execute(context.Background(), RunOptions{
		ConfigPath: path,
		SourceDir:  t.TempDir(),
		Event:      "push",
		Branch:     "feature/x",
	})
	assert.Equal(t, ExitOK, code)
}

func TestBuildOrchestrator_MemoryDefaults(t *testing.T) {
	path := writePipeline(t, pipelineYAML)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	orch, approvals, err := buildOrchestrator(cfg, RunOptions{SourceDir: t.TempDir()}, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, orch)
	assert.Nil(t, approvals)
}

func TestBuildOrchestrator_ApprovalServer(t *testing.T) {
	path := writePipeline(t, pipelineYAML)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, approvals, err := buildOrchestrator(cfg, RunOptions{
		SourceDir:    t.TempDir(),
		ApprovalAddr: "127.0.0.1:0",
	}, logging.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, approvals)
}
