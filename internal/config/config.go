// Package config loads and validates the gantry.yaml pipeline
// definition. Validation failures are configuration errors: the CLI
// reports them with exit code 2, before any stage runs.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/pipeline"
)

// DefaultPath is where the CLI looks for the pipeline definition.
const DefaultPath = "gantry.yaml"

// Config is the root of gantry.yaml.
type Config struct {
	Name        string         `yaml:"name"`
	Environment string         `yaml:"environment"`
	On          TriggerConfig  `yaml:"on"`
	Store       StoreConfig    `yaml:"store"`
	Trust       TrustConfig    `yaml:"trust"`
	Registry    RegistryConfig `yaml:"registry"`
	Stages      []StageConfig  `yaml:"stages"`
}

// TriggerConfig mirrors domain.TriggerFilter in YAML form.
type TriggerConfig struct {
	Events          []string `yaml:"events"`
	Branches        []string `yaml:"branches"`
	PublishBranches []string `yaml:"publish_branches"`
}

// StoreConfig selects the artifact store backend. With holds
// backend-specific settings, decoded by the adapter that claims them.
type StoreConfig struct {
	Kind string         `yaml:"kind"`
	With map[string]any `yaml:"with"`
}

// DecodeWith decodes the backend-specific settings into the adapter's
// own config struct.
func (s StoreConfig) DecodeWith(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("store config decoder: %w", err)
	}
	if err := dec.Decode(s.With); err != nil {
		return fmt.Errorf("store %q settings: %w", s.Kind, err)
	}
	return nil
}

// TrustConfig points at the trust exchange endpoint.
type TrustConfig struct {
	URL          string `yaml:"url"`
	RequestToken string `yaml:"request_token"`
}

// RegistryConfig points at the package index.
type RegistryConfig struct {
	URL string `yaml:"url"`
}

// StageConfig is one stage entry.
type StageConfig struct {
	Name        string         `yaml:"name"`
	Needs       []string       `yaml:"needs"`
	Inputs      []string       `yaml:"inputs"`
	Outputs     []string       `yaml:"outputs"`
	Commands    []CommandSpec  `yaml:"commands"`
	Timeout     Duration       `yaml:"timeout"`
	Environment string         `yaml:"environment"`
	Publish     *PublishConfig `yaml:"publish"`
	Commit      *CommitConfig  `yaml:"commit"`
}

// Duration decodes Go duration strings ("90s", "5m") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// PublishConfig marks a stage as a registry publish.
type PublishConfig struct {
	Audience string `yaml:"audience"`
}

// CommitConfig marks a stage as self-modifying: after its commands
// run, changed files are committed back to the source branch.
type CommitConfig struct {
	Message string   `yaml:"message"`
	Paths   []string `yaml:"paths"`
}

// CommandSpec accepts either a plain string ("python -m build") or a
// mapping with explicit program and args.
type CommandSpec struct {
	Program string
	Args    []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CommandSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		fields := strings.Fields(value.Value)
		if len(fields) == 0 {
			return fmt.Errorf("empty command")
		}
		c.Program = fields[0]
		c.Args = fields[1:]
		return nil
	case yaml.MappingNode:
		var raw struct {
			Program string   `yaml:"program"`
			Args    []string `yaml:"args"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw.Program == "" {
			return fmt.Errorf("command mapping requires a program")
		}
		c.Program = raw.Program
		c.Args = raw.Args
		return nil
	default:
		return fmt.Errorf("command must be a string or a mapping")
	}
}

// Load reads the definition at path, applies .env and environment
// variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	// A .env beside the definition supplies secrets without putting
	// them in the YAML. Missing file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline definition: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GANTRY_ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("GANTRY_TRUST_URL"); v != "" {
		c.Trust.URL = v
	}
	if v := os.Getenv("GANTRY_TRUST_REQUEST_TOKEN"); v != "" {
		c.Trust.RequestToken = v
	}
	if v := os.Getenv("GANTRY_REGISTRY_URL"); v != "" {
		c.Registry.URL = v
	}
	if v := os.Getenv("GANTRY_STORE_KIND"); v != "" {
		c.Store.Kind = v
	}
}

// Validate checks the definition for structural problems that make a
// run impossible.
func (c *Config) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("pipeline defines no stages")
	}

	seen := make(map[string]bool, len(c.Stages))
	for _, stage := range c.Stages {
		if stage.Name == "" {
			return fmt.Errorf("stage without a name")
		}
		if seen[stage.Name] {
			return fmt.Errorf("stage %q defined twice", stage.Name)
		}
		seen[stage.Name] = true

		if stage.Publish != nil {
			if stage.Environment == "" {
				return fmt.Errorf("publish stage %q requires an environment", stage.Name)
			}
			if stage.Publish.Audience == "" {
				return fmt.Errorf("publish stage %q requires an audience", stage.Name)
			}
			if len(stage.Commands) > 0 {
				return fmt.Errorf("publish stage %q cannot run commands", stage.Name)
			}
		}
		if stage.Commit != nil && stage.Commit.Message == "" {
			return fmt.Errorf("commit stage %q requires a message", stage.Name)
		}
		if stage.Publish == nil && stage.Commit == nil && len(stage.Commands) == 0 {
			return fmt.Errorf("stage %q has nothing to do", stage.Name)
		}
	}

	for _, event := range c.On.Events {
		switch domain.EventKind(event) {
		case domain.EventPush, domain.EventPullRequest:
		default:
			return fmt.Errorf("unknown trigger event %q", event)
		}
	}

	switch c.Store.Kind {
	case "", "memory", "redis", "s3":
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}

	return nil
}

// Filter converts the trigger section to its domain form.
func (c *Config) Filter() domain.TriggerFilter {
	filter := domain.TriggerFilter{
		Branches:        c.On.Branches,
		PublishBranches: c.On.PublishBranches,
	}
	for _, event := range c.On.Events {
		filter.Events = append(filter.Events, domain.EventKind(event))
	}
	return filter
}

// Pipeline registers every stage into a fresh pipeline. Graph problems
// (cycles, unknown dependencies, unbound inputs) surface here.
func (c *Config) Pipeline() (*pipeline.Pipeline, error) {
	p := pipeline.New()
	for _, sc := range c.Stages {
		stage := domain.Stage{
			Name:        sc.Name,
			Needs:       sc.Needs,
			Inputs:      sc.Inputs,
			Outputs:     sc.Outputs,
			Timeout:     time.Duration(sc.Timeout),
			Environment: sc.Environment,
		}
		for _, cmd := range sc.Commands {
			stage.Commands = append(stage.Commands, domain.Command{
				Program: cmd.Program,
				Args:    cmd.Args,
			})
		}
		if sc.Publish != nil {
			stage.Publish = &domain.PublishSpec{Audience: sc.Publish.Audience}
		}
		if sc.Commit != nil {
			stage.Commit = &domain.CommitSpec{
				Message: sc.Commit.Message,
				Paths:   sc.Commit.Paths,
			}
		}
		if err := p.Register(stage); err != nil {
			return nil, fmt.Errorf("stage %q: %w", sc.Name, err)
		}
	}
	return p, nil
}
