package sched

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchedulerConfig bundles the cell and scheduler arguments, loadable from a YAML file.
// Fields absent from the file keep the DefaultSchedArgs values.
type SchedulerConfig struct {
	Cell CellParams `yaml:"cell"`
	Args SchedArgs  `yaml:"scheduler"`
}

// LoadSchedulerConfig reads, parses and validates a YAML scheduler configuration file.
func LoadSchedulerConfig(path string) (*SchedulerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheduler config: %w", err)
	}
	return ParseSchedulerConfig(data)
}

// ParseSchedulerConfig decodes a YAML scheduler configuration. Unknown keys are rejected.
func ParseSchedulerConfig(data []byte) (*SchedulerConfig, error) {
	cfg := SchedulerConfig{Args: DefaultSchedArgs()}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing scheduler config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks both halves of the bundle.
func (c *SchedulerConfig) Validate() error {
	if err := c.Cell.Validate(); err != nil {
		return err
	}
	return c.Args.Validate()
}
