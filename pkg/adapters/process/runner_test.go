package process_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/adapters/process"
	"github.com/aretw0/gantry/pkg/domain"
)

func sh(script string) domain.Command {
	return domain.Command{Program: "sh", Args: []string{"-c", script}}
}

func testRun() domain.RunContext {
	return domain.RunContext{
		RunID:     "run-1",
		Trigger:   domain.Trigger{Event: domain.EventPush, Branch: "main"},
		StartedAt: time.Now(),
	}
}

func TestRun_ProducesDeclaredOutputs(t *testing.T) {
	store := memory.NewStore()
	runner := process.NewRunner(store, t.TempDir())

	stage := domain.Stage{
		Name:    "build",
		Outputs: []string{"wheel", "sdist"},
		Commands: []domain.Command{
			sh("printf wheel-bytes > dist/wheel"),
			sh("printf sdist-bytes > dist/sdist"),
		},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, result.Status)
	require.Len(t, result.Produced, 2)

	art, err := store.Download(context.Background(), "wheel")
	require.NoError(t, err)
	assert.Equal(t, "wheel-bytes", string(art.Content))
	assert.Equal(t, "build", art.Producer)
}

func TestRun_MissingInput_SkipsCommandSet(t *testing.T) {
	store := memory.NewStore()
	src := t.TempDir()
	runner := process.NewRunner(store, src)

	marker := filepath.Join(src, "executed")
	stage := domain.Stage{
		Name:     "verify",
		Inputs:   []string{"wheel"},
		Commands: []domain.Command{sh("touch " + marker)},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrMissingInput)

	// The command-set must not have run.
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingOutput_FailsDespiteZeroExit(t *testing.T) {
	store := memory.NewStore()
	runner := process.NewRunner(store, t.TempDir())

	stage := domain.Stage{
		Name:     "build",
		Outputs:  []string{"wheel"},
		Commands: []domain.Command{sh("true")},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrMissingOutput)
}

func TestRun_NonZeroExit_CapturesOutput(t *testing.T) {
	store := memory.NewStore()
	runner := process.NewRunner(store, t.TempDir())

	stage := domain.Stage{
		Name:     "build",
		Commands: []domain.Command{sh("echo boom; exit 3")},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, result.Status)
	assert.Contains(t, result.ErrorDetail, "boom")
}

func TestRun_Timeout(t *testing.T) {
	store := memory.NewStore()
	runner := process.NewRunner(store, t.TempDir())

	stage := domain.Stage{
		Name:     "build",
		Timeout:  50 * time.Millisecond,
		Commands: []domain.Command{sh("sleep 2")},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrStageTimeout)
}

func TestRun_InputsMaterializedByConvention(t *testing.T) {
	store := memory.NewStore()
	_, err := store.Upload(context.Background(), "wheel", []byte("wheel-bytes"), "build")
	require.NoError(t, err)

	runner := process.NewRunner(store, t.TempDir())

	// Verify re-exports the input it consumed, proving it was readable
	// at the conventional path.
	stage := domain.Stage{
		Name:     "verify",
		Inputs:   []string{"wheel"},
		Outputs:  []string{"report"},
		Commands: []domain.Command{sh("cp dist/wheel dist/report")},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	require.Equal(t, domain.StageSuccess, result.Status, result.ErrorDetail)

	art, err := store.Download(context.Background(), "report")
	require.NoError(t, err)
	assert.Equal(t, "wheel-bytes", string(art.Content))
}

func TestRun_RunContextEnvExposed(t *testing.T) {
	store := memory.NewStore()
	runner := process.NewRunner(store, t.TempDir())

	stage := domain.Stage{
		Name:     "build",
		Outputs:  []string{"env"},
		Commands: []domain.Command{sh(`printf "%s %s %s" "$GANTRY_RUN_ID" "$GANTRY_EVENT" "$GANTRY_BRANCH" > dist/env`)},
	}

	result, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	require.Equal(t, domain.StageSuccess, result.Status, result.ErrorDetail)

	art, err := store.Download(context.Background(), "env")
	require.NoError(t, err)
	assert.Equal(t, "run-1 push main", string(art.Content))
}

type fakeCommitter struct {
	committed bool
	calls     int
}

func (f *fakeCommitter) CommitIfChanged(ctx context.Context, run domain.RunContext, spec domain.CommitSpec) (bool, error) {
	f.calls++
	// First call finds changes, later calls see a clean tree.
	if f.calls == 1 {
		f.committed = true
		return true, nil
	}
	return false, nil
}

func TestRun_SelfModifyingStage_Idempotent(t *testing.T) {
	store := memory.NewStore()
	committer := &fakeCommitter{}
	runner := process.NewRunner(store, t.TempDir(), process.WithCommitter(committer))

	stage := domain.Stage{
		Name:     "format",
		Commands: []domain.Command{sh("true")},
		Commit:   &domain.CommitSpec{Message: "style: apply formatter"},
	}

	first, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, first.Status)
	assert.True(t, first.Committed)

	// Second run on the already-formatted tree: still Success, but no
	// second commit to re-fire the trigger.
	second, err := runner.Run(context.Background(), stage, testRun())
	require.NoError(t, err)
	assert.Equal(t, domain.StageSuccess, second.Status)
	assert.False(t, second.Committed)
}
