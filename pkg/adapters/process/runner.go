// Package process implements the StageRunner port: it executes a
// stage's command-set as local processes in an isolated working
// directory seeded with the checked-out source, and moves declared
// artifacts in and out of the artifact store by path convention.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// ArtifactDir is the conventional directory (relative to the stage
// working directory) where declared inputs are materialized and
// declared outputs are collected from.
const ArtifactDir = "dist"

// Runner implements ports.StageRunner.
type Runner struct {
	store     ports.ArtifactStore
	committer ports.Committer
	sourceDir string
	workRoot  string
	timeout   time.Duration
	logger    *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommitter wires the git committer used by self-modifying stages.
func WithCommitter(c ports.Committer) RunnerOption {
	return func(r *Runner) { r.committer = c }
}

// WithWorkRoot places isolated stage directories under dir instead of
// the system temp directory.
func WithWorkRoot(dir string) RunnerOption {
	return func(r *Runner) { r.workRoot = dir }
}

// WithDefaultTimeout bounds stages that declare no timeout of their
// own. Zero disables the default bound.
func WithDefaultTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner executing stages against the source
// checkout at sourceDir.
func NewRunner(store ports.ArtifactStore, sourceDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:     store,
		sourceDir: sourceDir,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one stage and reports its result.
//
// Inputs are verified before anything executes; a zero exit with a
// missing declared output is still a failure, so a stage cannot look
// successful while starving its dependents.
func (r *Runner) Run(ctx context.Context, stage domain.Stage, run domain.RunContext) (domain.StageResult, error) {
	started := time.Now()
	result := domain.StageResult{Stage: stage.Name, Status: domain.StageRunning}

	fail := func(classify error, detail string) (domain.StageResult, error) {
		result.Status = domain.StageFailed
		result.Err = classify
		result.ErrorDetail = detail
		result.Duration = time.Since(started)
		return result, nil
	}

	// 1. Verify declared inputs before executing anything.
	for _, input := range stage.Inputs {
		if _, err := r.store.Stat(ctx, input); err != nil {
			if errors.Is(err, domain.ErrArtifactNotFound) {
				return fail(domain.ErrMissingInput,
					fmt.Sprintf("input artifact %q was never produced", input))
			}
			return result, fmt.Errorf("stat input %q: %w", input, err)
		}
	}

	// 2. Prepare the working directory. Self-modifying stages run
	// against the real source tree (they push a commit back); everyone
	// else gets an isolated seeded copy.
	workDir := r.sourceDir
	if stage.Commit == nil {
		dir, err := os.MkdirTemp(r.workRoot, "gantry-"+stage.Name+"-")
		if err != nil {
			return result, fmt.Errorf("create stage dir: %w", err)
		}
		defer os.RemoveAll(dir)
		if err := copyTree(r.sourceDir, dir); err != nil {
			return result, fmt.Errorf("seed stage dir: %w", err)
		}
		workDir = dir
	}

	artifactDir := filepath.Join(workDir, ArtifactDir)
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		return result, fmt.Errorf("create artifact dir: %w", err)
	}

	// 3. Materialize declared inputs read-only by path convention.
	for _, input := range stage.Inputs {
		art, err := r.store.Download(ctx, input)
		if err != nil {
			return result, fmt.Errorf("download input %q: %w", input, err)
		}
		if err := os.WriteFile(filepath.Join(artifactDir, input), art.Content, 0o444); err != nil {
			return result, fmt.Errorf("materialize input %q: %w", input, err)
		}
	}

	// 4. Execute the command-set under the stage timeout.
	timeout := stage.Timeout
	if timeout == 0 {
		timeout = r.timeout
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var output bytes.Buffer
	for _, command := range stage.Commands {
		cmd := exec.CommandContext(execCtx, command.Program, command.Args...)
		cmd.Dir = workDir
		cmd.Stdout = &output
		cmd.Stderr = &output
		cmd.Env = append(os.Environ(), stageEnv(stage, run)...)

		r.logger.Debug("executing stage command",
			"stage", stage.Name, "program", command.Program)

		if err := cmd.Run(); err != nil {
			result.Output = output.String()
			if execCtx.Err() == context.DeadlineExceeded {
				return fail(domain.ErrStageTimeout,
					fmt.Sprintf("stage exceeded timeout of %s", timeout))
			}
			return fail(fmt.Errorf("command %q: %w", command.Program, err), output.String())
		}
	}
	result.Output = output.String()

	// 5. Self-modifying stage: push changes back, but only if the
	// command-set actually changed the tree. A clean tree is Success
	// with no commit, which is what keeps the push trigger from
	// re-firing forever.
	if stage.Commit != nil {
		if r.committer == nil {
			return result, fmt.Errorf("stage %q declares a commit but no committer is configured", stage.Name)
		}
		committed, err := r.committer.CommitIfChanged(ctx, run, *stage.Commit)
		if err != nil {
			return fail(err, fmt.Sprintf("commit failed: %v", err))
		}
		result.Committed = committed
	}

	// 6. Collect declared outputs; a zero exit without them is a failure.
	for _, name := range stage.Outputs {
		path := filepath.Join(artifactDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fail(domain.ErrMissingOutput,
					fmt.Sprintf("declared output %q not found at %s", name, path))
			}
			return result, fmt.Errorf("read output %q: %w", name, err)
		}
		checksum, err := r.store.Upload(ctx, name, content, stage.Name)
		if err != nil {
			return result, fmt.Errorf("upload output %q: %w", name, err)
		}
		result.Produced = append(result.Produced, domain.ArtifactInfo{
			Name:     name,
			Producer: stage.Name,
			Checksum: checksum,
			Size:     int64(len(content)),
		})
	}

	result.Status = domain.StageSuccess
	result.Duration = time.Since(started)
	return result, nil
}

// stageEnv builds the RunContext environment passed to stage commands.
func stageEnv(stage domain.Stage, run domain.RunContext) []string {
	env := []string{
		"GANTRY_RUN_ID=" + run.RunID,
		"GANTRY_EVENT=" + string(run.Trigger.Event),
		"GANTRY_BRANCH=" + run.Trigger.Branch,
		"GANTRY_STAGE=" + stage.Name,
		"GANTRY_ARTIFACT_DIR=" + ArtifactDir,
	}
	if stage.Environment != "" {
		env = append(env, "GANTRY_ENVIRONMENT="+stage.Environment)
	}
	return env
}

// copyTree copies src into dst, preserving relative layout.
// Symlinks are skipped; the checkout is treated as plain files.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	})
}
