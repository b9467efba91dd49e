package cli

import (
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/gantry/internal/config"
	"github.com/aretw0/gantry/internal/runtime"
	"github.com/aretw0/gantry/pkg/adapters/git"
	gantryhttp "github.com/aretw0/gantry/pkg/adapters/http"
	"github.com/aretw0/gantry/pkg/adapters/memory"
	"github.com/aretw0/gantry/pkg/adapters/process"
	"github.com/aretw0/gantry/pkg/adapters/redis"
	"github.com/aretw0/gantry/pkg/adapters/s3"
	"github.com/aretw0/gantry/pkg/ports"
)

// buildOrchestrator assembles the orchestrator from the pipeline
// definition with standard CLI conventions: the store backend comes
// from the config, remote trust/registry endpoints are used when
// configured and in-memory stand-ins otherwise (dry runs). The second
// return value is the approval server to expose, nil when approvals
// are automatic.
func buildOrchestrator(cfg *config.Config, opts RunOptions, logger *slog.Logger) (*runtime.Orchestrator, *gantryhttp.ApprovalServer, error) {
	pipe, err := cfg.Pipeline()
	if err != nil {
		return nil, nil, err
	}

	store, locker, err := buildStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var committer ports.Committer
	for _, stage := range cfg.Stages {
		if stage.Commit != nil {
			committer = git.NewCommitter(opts.SourceDir, git.WithLogger(logger))
			break
		}
	}

	runnerOpts := []process.RunnerOption{
		process.WithLogger(logger),
	}
	if committer != nil {
		runnerOpts = append(runnerOpts, process.WithCommitter(committer))
	}
	runner := process.NewRunner(store, opts.SourceDir, runnerOpts...)

	var trust ports.TokenIssuer
	if cfg.Trust.URL != "" {
		trust = gantryhttp.NewTrustClient(cfg.Trust.URL, cfg.Trust.RequestToken)
	} else {
		trust = memory.NewIssuer([]string{cfg.Environment})
	}

	var registry ports.Registry
	if cfg.Registry.URL != "" {
		registry = gantryhttp.NewRegistryClient(cfg.Registry.URL)
	} else {
		registry = memory.NewRegistry(audienceOf(cfg))
	}

	var gate ports.ApprovalGate
	var approvals *gantryhttp.ApprovalServer
	if opts.ApprovalAddr != "" {
		approvals = gantryhttp.NewApprovalServer()
		gate = approvals
	} else {
		// Without an approval endpoint the CLI is non-interactive.
		gate = memory.AutoGate{}
	}

	orchOpts := []runtime.Option{
		runtime.WithTriggerFilter(cfg.Filter()),
		runtime.WithApprovalGate(gate),
		runtime.WithLogger(logger),
	}
	if locker != nil {
		orchOpts = append(orchOpts, runtime.WithRunLocker(locker, 30*time.Minute))
	}
	if opts.Hooks != nil {
		orchOpts = append(orchOpts, runtime.WithLifecycleHooks(*opts.Hooks))
	}

	return runtime.NewOrchestrator(pipe, runner, store, trust, registry, orchOpts...), approvals, nil
}

func buildStore(cfg *config.Config, logger *slog.Logger) (ports.ArtifactStore, ports.RunLocker, error) {
	switch cfg.Store.Kind {
	case "", "memory":
		return memory.NewStore(), nil, nil

	case "redis":
		var rc struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			Prefix   string `mapstructure:"prefix"`
		}
		if err := cfg.Store.DecodeWith(&rc); err != nil {
			return nil, nil, err
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		var storeOpts []redis.StoreOption
		if rc.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(rc.Prefix))
		}
		store := redis.NewFromClient(client, storeOpts...)
		prefix := rc.Prefix
		if prefix == "" {
			prefix = "gantry:"
		}
		locker := redis.NewLocker(client, prefix+"lock:")
		return store, locker, nil

	case "s3":
		var sc s3.Config
		if err := cfg.Store.DecodeWith(&sc); err != nil {
			return nil, nil, err
		}
		store, err := s3.NewStore(sc)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

func audienceOf(cfg *config.Config) string {
	for _, stage := range cfg.Stages {
		if stage.Publish != nil {
			return stage.Publish.Audience
		}
	}
	return "registry"
}
