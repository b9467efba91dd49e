package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/pkg/adapters/git"
	"github.com/aretw0/gantry/pkg/domain"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"-c", "user.name=test", "-c", "user.email=test@localhost", "commit", "--allow-empty", "-q", "-m", "init"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	return dir
}

func TestCommitIfChanged_Idempotent(t *testing.T) {
	dir := initRepo(t)
	committer := git.NewCommitter(dir, git.WithoutPush())
	run := domain.RunContext{
		RunID:   "run-1",
		Trigger: domain.Trigger{Event: domain.EventPush, Branch: "main"},
	}
	spec := domain.CommitSpec{Message: "style: apply formatter"}

	// Dirty tree: commits once.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("formatted\n"), 0o644))
	committed, err := committer.CommitIfChanged(context.Background(), run, spec)
	require.NoError(t, err)
	assert.True(t, committed)

	// Clean tree: no diff, no second commit.
	committed, err = committer.CommitIfChanged(context.Background(), run, spec)
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommitIfChanged_ScopedPaths(t *testing.T) {
	dir := initRepo(t)
	committer := git.NewCommitter(dir, git.WithoutPush())
	run := domain.RunContext{RunID: "run-2", Trigger: domain.Trigger{Branch: "main"}}

	// Change outside the scoped path is invisible to the stage.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	committed, err := committer.CommitIfChanged(context.Background(), run,
		domain.CommitSpec{Message: "style", Paths: []string{"src"}})
	require.NoError(t, err)
	assert.False(t, committed)
}
