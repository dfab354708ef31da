package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/statenode/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultStateProperty is the output field carrying the state.
	DefaultStateProperty = "state"
	// DefaultTriggerProperty is the input field carrying the trigger.
	DefaultTriggerProperty = "trigger"
	// DefaultKey is the persistence key used when neither persistKey nor name is set.
	DefaultKey = "state"
)

// Config is the full configuration of one machine node.
type Config struct {
	Name        string              `yaml:"name,omitempty" json:"name,omitempty"`
	States      []string            `yaml:"states" json:"states"`
	Transitions []domain.Transition `yaml:"transitions" json:"transitions"`

	// InitialDelay is the number of seconds to wait before emitting the initial state.
	// Empty disables the initial emission; "0" emits immediately.
	InitialDelay string `yaml:"initialDelay,omitempty" json:"initialDelay,omitempty"`

	// PersistOnReload restores the state from the store instead of using the first state.
	PersistOnReload bool   `yaml:"persistOnReload" json:"persistOnReload"`
	PersistKey      string `yaml:"persistKey,omitempty" json:"persistKey,omitempty"`

	ReportOnInvalidTrigger bool `yaml:"reportOnInvalidTrigger" json:"reportOnInvalidTrigger"`
	EmitOnNoChange         bool `yaml:"emitOnNoChange" json:"emitOnNoChange"`

	StateProperty   string `yaml:"stateProperty" json:"stateProperty"`
	TriggerProperty string `yaml:"triggerProperty" json:"triggerProperty"`
}

// rawConfig mirrors the accepted keys, including the legacy ones, with pointers
// so absent keys can be told apart from zero values.
type rawConfig struct {
	Name            string              `mapstructure:"name"`
	States          []string            `mapstructure:"states"`
	Transitions     []domain.Transition `mapstructure:"transitions"`
	InitialDelay    *string             `mapstructure:"initialDelay"`
	PersistOnReload bool                `mapstructure:"persistOnReload"`
	PersistKey      string              `mapstructure:"persistKey"`

	ReportOnInvalidTrigger *bool `mapstructure:"reportOnInvalidTrigger"`
	ThrowException         *bool `mapstructure:"throwException"`
	EmitOnNoChange         *bool `mapstructure:"emitOnNoChange"`
	OutputStateChangeOnly  *bool `mapstructure:"outputStateChangeOnly"`

	StateProperty   *string `mapstructure:"stateProperty"`
	TriggerProperty *string `mapstructure:"triggerProperty"`
}

// Load reads a YAML or JSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML (and therefore JSON) configuration bytes.
func Parse(data []byte) (*Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return FromMap(m)
}

// FromMap decodes a generic map, e.g. a host node's JSON properties.
// Values are weakly typed: "true" is a bool and 2 is a valid initialDelay.
// Canonical keys take precedence over their legacy equivalents.
func FromMap(m map[string]any) (*Config, error) {
	var raw rawConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, domain.NewConfigError(domain.ErrMissingField, "%v", err)
	}

	cfg := &Config{
		Name:            raw.Name,
		States:          raw.States,
		Transitions:     raw.Transitions,
		PersistOnReload: raw.PersistOnReload,
		PersistKey:      raw.PersistKey,
		StateProperty:   DefaultStateProperty,
		TriggerProperty: DefaultTriggerProperty,
	}

	if raw.InitialDelay != nil {
		cfg.InitialDelay = strings.TrimSpace(*raw.InitialDelay)
	}

	switch {
	case raw.ReportOnInvalidTrigger != nil:
		cfg.ReportOnInvalidTrigger = *raw.ReportOnInvalidTrigger
	case raw.ThrowException != nil:
		cfg.ReportOnInvalidTrigger = *raw.ThrowException
	}

	switch {
	case raw.EmitOnNoChange != nil:
		cfg.EmitOnNoChange = *raw.EmitOnNoChange
	case raw.OutputStateChangeOnly != nil:
		cfg.EmitOnNoChange = !*raw.OutputStateChangeOnly
	}

	if raw.StateProperty != nil {
		cfg.StateProperty = *raw.StateProperty
	}
	if raw.TriggerProperty != nil {
		cfg.TriggerProperty = *raw.TriggerProperty
	}

	return cfg, nil
}

// Validate checks the fields that do not depend on the transition graph.
// Graph errors (empty states, bad targets, ambiguity) are reported when the table is built.
func (c *Config) Validate() error {
	if c.StateProperty == "" {
		return domain.NewConfigError(domain.ErrMissingField, "state output property is required")
	}
	if c.TriggerProperty == "" {
		return domain.NewConfigError(domain.ErrMissingField, "trigger input property is required")
	}
	if _, _, err := c.Delay(); err != nil {
		return err
	}
	return nil
}

// maxDelaySeconds is the first delay a time.Duration can no longer hold.
const maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// Delay parses InitialDelay. enabled is false when the initial emission is disabled.
func (c *Config) Delay() (d time.Duration, enabled bool, err error) {
	if c.InitialDelay == "" {
		return 0, false, nil
	}
	secs, err := strconv.ParseFloat(c.InitialDelay, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || secs >= maxDelaySeconds {
		return 0, false, domain.NewConfigError(domain.ErrInvalidDelay, "'%s'", c.InitialDelay)
	}
	return time.Duration(secs * float64(time.Second)), true, nil
}

// Key returns the persistence key of the node.
func (c *Config) Key() string {
	switch {
	case c.PersistKey != "":
		return c.PersistKey
	case c.Name != "":
		return c.Name
	}
	return DefaultKey
}

// Definition returns the declarative graph of the machine.
func (c *Config) Definition() domain.Definition {
	return domain.Definition{
		Name:        c.Name,
		States:      c.States,
		Transitions: c.Transitions,
	}
}

// Marshal encodes the configuration as YAML with canonical keys.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
