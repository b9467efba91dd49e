// Package cli implements the gantry command logic: loading the
// pipeline definition, assembling the orchestrator, executing a run
// and rendering the report.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/internal/presentation/tui"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/observability"
)

// Exit codes of the gantry CLI.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath   string
	SourceDir    string
	Event        string
	Branch       string
	Environment  string
	RunID        string
	JSON         bool
	Debug        bool
	ApprovalAddr string
	MetricsAddr  string

	// Hooks lets callers observe the run (tests).
	Hooks *domain.LifecycleHooks
}

// Execute handles the run command. The returned code follows the CLI
// convention: 0 run succeeded, 1 run failed, 2 configuration error.
func Execute(ctx context.Context, opts RunOptions) int {
	logger := newLogger(opts.Debug)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return ExitConfig
	}
	if opts.Environment == "" {
		opts.Environment = cfg.Environment
	}

	if opts.MetricsAddr != "" {
		metrics := observability.NewMetrics()
		hooks := metrics.Hooks()
		opts.Hooks = &hooks
		srv := &http.Server{Addr: opts.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("metrics endpoint listening", "addr", opts.MetricsAddr)
	}

	orch, approvals, err := buildOrchestrator(cfg, opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return ExitConfig
	}

	if approvals != nil {
		srv := &http.Server{Addr: opts.ApprovalAddr, Handler: approvals.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("approval server", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("approval endpoint listening", "addr", opts.ApprovalAddr)
	}

	trigger := domain.Trigger{
		Event:  domain.EventKind(opts.Event),
		Branch: opts.Branch,
	}
	if !orch.ShouldRun(trigger) {
		logger.Info("trigger does not match pipeline filters; nothing to do",
			"event", opts.Event, "branch", opts.Branch)
		return ExitOK
	}

	run := domain.RunContext{
		RunID:       opts.RunID,
		Trigger:     trigger,
		Environment: opts.Environment,
		StartedAt:   time.Now(),
	}
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}

	report, err := orch.Execute(ctx, run)
	if err != nil {
		if report == nil {
			// Graph or lock problems surface before any stage runs.
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			return ExitConfig
		}
		fmt.Fprintf(os.Stderr, "Run aborted: %v\n", err)
	}
	if report == nil {
		return ExitFailed
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		}
	} else {
		render := tui.NewRenderer()
		out, rerr := render(report.Markdown())
		if rerr != nil {
			out = report.Markdown()
		}
		fmt.Print(out)
	}

	return report.ExitCode()
}

func newLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}
