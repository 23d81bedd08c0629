package gen

import (
	"errors"
	"path/filepath"
	"strings"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithOutput sets the name of the file written to each package directory.
func WithOutput(name string) Option {
	return func(c *Config) error {
		if err := validOutput(name); err != nil {
			return err
		}
		c.Output = name
		return nil
	}
}

// WithWorkers sets the number of packages generated in parallel.
// Zero means one worker per CPU.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "must not be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithPatterns sets the package patterns to load.
func WithPatterns(patterns ...string) Option {
	return func(c *Config) error {
		if len(patterns) == 0 {
			return NewConfigError("Patterns", nil, "at least one pattern is required")
		}
		c.Patterns = patterns
		return nil
	}
}

// WithBuildFlags sets custom build flags for loading packages.
func WithBuildFlags(flags ...string) Option {
	return func(c *Config) error {
		c.BuildFlags = append(c.BuildFlags, flags...)
		return nil
	}
}

func validOutput(name string) error {
	switch {
	case name == "":
		return NewConfigError("Output", nil, "file name cannot be empty")
	case filepath.Base(name) != name:
		return NewConfigError("Output", name, "must be a file name, not a path")
	case !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go"):
		return NewConfigError("Output", name, "must be a non-test .go file")
	}
	return nil
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
