package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingConfig is returned when a required setting or tool is absent.
	ErrMissingConfig = errors.New("missing configuration")
	// ErrInvalidConfig is returned when configuration values are unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// External tool names.
const (
	ToolMutationEngine     = "mutation_engine"
	ToolTestGenerator      = "test_generator"
	ToolVariantBuilder     = "variant_builder"
	ToolStateExecutor      = "state_executor"
	ToolRelationSplitter   = "relation_splitter"
	ToolRelationTranslator = "relation_translator"
	ToolFollowupGenerator  = "followup_generator"
	ToolSuiteBuilder       = "suite_builder"
	ToolBaselineRunner     = "baseline_runner"
	ToolMutationRunner     = "mutation_runner"
	ToolMethodLocator      = "method_locator"
)

// Settings are the per-run knobs of the pipeline.
type Settings struct {
	MaxTests        int           `mapstructure:"max_tests" yaml:"max_tests" validate:"min=0"`
	RandomSeed      int64         `mapstructure:"random_seed" yaml:"random_seed"`
	Workers         int           `mapstructure:"workers" yaml:"workers" validate:"min=0"`
	FollowupTimeout time.Duration `mapstructure:"followup_timeout" yaml:"followup_timeout" validate:"gt=0"`
	AssertionsDir   Path          `mapstructure:"assertions_dir" yaml:"assertions_dir"`
	Experiments     string        `mapstructure:"experiments" yaml:"experiments" validate:"required"`
}

// Overrides replaces individual Settings fields. Nil fields keep the default.
type Overrides struct {
	MaxTests        *int           `mapstructure:"max_tests" yaml:"max_tests,omitempty"`
	RandomSeed      *int64         `mapstructure:"random_seed" yaml:"random_seed,omitempty"`
	Workers         *int           `mapstructure:"workers" yaml:"workers,omitempty"`
	FollowupTimeout *time.Duration `mapstructure:"followup_timeout" yaml:"followup_timeout,omitempty"`
	AssertionsDir   *Path          `mapstructure:"assertions_dir" yaml:"assertions_dir,omitempty"`
	Experiments     *string        `mapstructure:"experiments" yaml:"experiments,omitempty"`
}

// Apply returns s with every non-nil override applied.
func (o Overrides) Apply(s Settings) Settings {
	if o.MaxTests != nil {
		s.MaxTests = *o.MaxTests
	}

	if o.RandomSeed != nil {
		s.RandomSeed = *o.RandomSeed
	}

	if o.Workers != nil {
		s.Workers = *o.Workers
	}

	if o.FollowupTimeout != nil {
		s.FollowupTimeout = *o.FollowupTimeout
	}

	if o.AssertionsDir != nil {
		s.AssertionsDir = *o.AssertionsDir
	}

	if o.Experiments != nil {
		s.Experiments = *o.Experiments
	}

	return s
}

// Tools maps a tool name to its argv template.
type Tools map[string][]string

// Config is the typed mreval configuration file.
type Config struct {
	Version  int                  `mapstructure:"version" yaml:"version"`
	Output   Path                 `mapstructure:"output" yaml:"output" validate:"required"`
	Subjects []Subject            `mapstructure:"subjects" yaml:"subjects" validate:"dive"`
	Defaults Settings             `mapstructure:"defaults" yaml:"defaults"`
	Profiles map[string]Overrides `mapstructure:"profiles" yaml:"profiles,omitempty"`
	Tools    Tools                `mapstructure:"tools" yaml:"tools"`
}

// Resolve returns the defaults with the named profile applied. An empty
// profile returns the defaults unchanged.
func (c Config) Resolve(profile string) (Settings, error) {
	if profile == "" {
		return c.Defaults, nil
	}

	overrides, ok := c.Profiles[profile]
	if !ok {
		return Settings{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidConfig, profile)
	}

	return overrides.Apply(c.Defaults), nil
}

// Tool returns the argv template for name.
func (c Config) Tool(name string) ([]string, error) {
	argv, ok := c.Tools[name]
	if !ok || len(argv) == 0 {
		return nil, fmt.Errorf("%w: tool %q", ErrMissingConfig, name)
	}

	return argv, nil
}
