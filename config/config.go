// Package config decodes the runtime knobs a host wires into the voting
// core: the committee threshold, the discrete-log recovery budget, and the
// small-table size. None of these are compiled-in constants because they
// vary per deployment (an election with 500 voters needs a far smaller
// MaxVotes than one with 5,000,000).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the validated, typed configuration the host hands to the core
// at startup. It carries no secrets and no network addresses; those belong
// to the host's own configuration, not the core's.
type Config struct {
	// Threshold is the minimum number of distinct committee decryption
	// shares required before a private tally can finalize.
	Threshold int `mapstructure:"threshold"`
	// MaxVotes bounds the discrete-log search budget shared across all
	// proposal slots of a single tally (spec.md §4.7).
	MaxVotes uint64 `mapstructure:"max_votes"`
	// TableSize is the size of the small lookup table precomputed before
	// falling back to the linear giant-step continuation.
	TableSize int `mapstructure:"table_size"`
}

// Validate checks the fields that can be validated without knowing the
// committee size (Threshold <= committee size is checked when the
// committee is actually constructed, in package committee).
func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("config: threshold must be positive, got %d", c.Threshold)
	}
	if c.MaxVotes == 0 {
		return fmt.Errorf("config: max_votes must be positive")
	}
	if c.TableSize <= 0 {
		return fmt.Errorf("config: table_size must be positive, got %d", c.TableSize)
	}
	return nil
}

// Load reads a Config from path (any format viper supports: yaml, json,
// toml, ...) and from BALLOTCORE_-prefixed environment variables, which
// take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BALLOTCORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
