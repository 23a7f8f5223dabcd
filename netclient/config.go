package netclient

import (
	"fmt"
	"time"

	"github.com/kbukum/netclient/validation"
)

const defaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// Timeout bounds each live exchange. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// Headers are applied to every request before descriptor headers.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent defaults to version.UserAgent().
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	Stub     StubConfig    `yaml:"stub" mapstructure:"stub"`
	Fixtures FixtureConfig `yaml:"fixtures" mapstructure:"fixtures"`

	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// StubConfig is the configuration form of StubBehavior.
type StubConfig struct {
	Mode  string        `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=never immediate delayed mock_server"`
	Delay time.Duration `yaml:"delay" mapstructure:"delay" validate:"gte=0"`
}

// Behavior converts the configuration to a StubBehavior.
func (c StubConfig) Behavior() (StubBehavior, error) {
	mode, err := ParseStubMode(c.Mode)
	if err != nil {
		return StubBehavior{}, err
	}
	return StubBehavior{Mode: mode, Delay: c.Delay}, nil
}

// FixtureConfig locates fixture files on disk.
type FixtureConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Extension string `yaml:"extension" mapstructure:"extension"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("netclient: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return err
	}
	return nil
}
