// Package git implements the Committer port for the self-modifying
// format-and-commit stage: it pushes reformatting back to the source
// branch, but only when the tree actually changed.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/aretw0/gantry/pkg/domain"
)

// Committer commits and pushes working tree changes.
//
// CommitIfChanged is idempotent by construction: a clean tree produces
// no commit and no push, which is what stops the pipeline's own push
// trigger from re-firing in a loop.
type Committer struct {
	dir    string
	remote string
	push   bool
	author string
	email  string
	logger *slog.Logger
}

// Option configures the committer.
type Option func(*Committer)

// WithRemote sets the push remote (default "origin").
func WithRemote(remote string) Option {
	return func(c *Committer) { c.remote = remote }
}

// WithoutPush commits locally without pushing (tests, dry runs).
func WithoutPush() Option {
	return func(c *Committer) { c.push = false }
}

// WithAuthor sets the commit identity.
func WithAuthor(name, email string) Option {
	return func(c *Committer) {
		c.author = name
		c.email = email
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Committer) { c.logger = logger }
}

// NewCommitter creates a committer operating on the checkout at dir.
func NewCommitter(dir string, opts ...Option) *Committer {
	c := &Committer{
		dir:    dir,
		remote: "origin",
		push:   true,
		author: "gantry",
		email:  "gantry@localhost",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CommitIfChanged stages the configured paths (or everything), commits and
// pushes — unless the tree is already clean, in which case it reports
// committed=false and succeeds.
func (c *Committer) CommitIfChanged(ctx context.Context, run domain.RunContext, spec domain.CommitSpec) (bool, error) {
	statusArgs := append([]string{"status", "--porcelain"}, spec.Paths...)
	status, err := c.git(ctx, statusArgs...)
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		c.logger.Debug("working tree clean, nothing to commit", "run_id", run.RunID)
		return false, nil
	}

	addArgs := []string{"add"}
	if len(spec.Paths) > 0 {
		addArgs = append(addArgs, spec.Paths...)
	} else {
		addArgs = append(addArgs, "-A")
	}
	if _, err := c.git(ctx, addArgs...); err != nil {
		return false, fmt.Errorf("git add: %w", err)
	}

	message := spec.Message
	if message == "" {
		message = "chore: apply pipeline formatting"
	}
	commitArgs := []string{
		"-c", "user.name=" + c.author,
		"-c", "user.email=" + c.email,
		"commit", "-m", message,
	}
	if _, err := c.git(ctx, commitArgs...); err != nil {
		return false, fmt.Errorf("git commit: %w", err)
	}

	if c.push {
		if _, err := c.git(ctx, "push", c.remote, "HEAD:"+run.Trigger.Branch); err != nil {
			return false, fmt.Errorf("git push: %w", err)
		}
	}

	c.logger.Info("pushed formatting commit", "run_id", run.RunID, "branch", run.Trigger.Branch)
	return true, nil
}

func (c *Committer) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%w: %s", err, strings.TrimSpace(out.String()))
	}
	return out.String(), nil
}
