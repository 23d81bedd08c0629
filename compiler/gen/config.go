package gen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	// ConfigFile is the configuration file looked up by the command.
	ConfigFile = "minorm.yaml"
	// DefaultHeader is the header comment of generated files.
	DefaultHeader = "Code generated by minorm. DO NOT EDIT."
	// DefaultOutput is the generated file name.
	DefaultOutput = "minorm_shapes.go"
)

// Config is the code generation configuration. It is usually read from a
// minorm.yaml file:
//
//	header: Code generated by minorm. DO NOT EDIT.
//	output: minorm_shapes.go
//	workers: 4
//	patterns:
//	  - ./...
type Config struct {
	Header     string   `yaml:"header,omitempty"`
	Output     string   `yaml:"output,omitempty"`
	Workers    int      `yaml:"workers,omitempty"`
	Patterns   []string `yaml:"patterns,omitempty"`
	BuildFlags []string `yaml:"build_flags,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Header:   DefaultHeader,
		Output:   DefaultOutput,
		Patterns: []string{"./..."},
	}
}

// LoadConfig reads the configuration file at path. Unset keys keep their
// defaults and a missing file yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gen: open config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("gen: parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := validOutput(c.Output); err != nil {
		return err
	}
	if c.Workers < 0 {
		return NewConfigError("Workers", c.Workers, "must not be negative")
	}
	if len(c.Patterns) == 0 {
		return NewConfigError("Patterns", nil, "at least one pattern is required")
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
