package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"dockhand/pkg/container"
)

const (
	// BackendAPI drives the Docker Engine API through the SDK client.
	BackendAPI = "docker"
	// BackendCLI drives the docker binary through a subprocess.
	BackendCLI = "docker_cli"

	// DefaultCommandTemplate shapes every docker_cli invocation. The
	// {executable} and {global_kwopts} placeholders are substituted when the
	// runtime is built; {subcommand} and {args} per call.
	DefaultCommandTemplate = "{executable} {global_kwopts} {subcommand} {args}"

	// DefaultExecutable is the runtime's canonical CLI name.
	DefaultExecutable = "docker"

	// DefaultNamePrefix prefixes generated container names.
	DefaultNamePrefix = "dockhand"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Config holds the immutable runtime settings resolved at startup. It is
// validated once, before first use; a validation failure is fatal for the
// runtime instance being configured.
type Config struct {
	Backend        string  `mapstructure:"backend" validate:"required,oneof=docker docker_cli"`
	Host           string  `mapstructure:"host"`
	ForceTLSVerify bool    `mapstructure:"force_tlsverify"`
	AutoRemove     bool    `mapstructure:"auto_remove"`
	Image          string  `mapstructure:"image"`
	CPUs           float64 `mapstructure:"cpus" validate:"gte=0"`
	Memory         string  `mapstructure:"memory"`
	NamePrefix     string  `mapstructure:"name_prefix"`

	// docker_cli only.
	CommandTemplate string `mapstructure:"command_template" validate:"required"`
	Executable      string `mapstructure:"executable" validate:"required"`
}

// Load reads an optional YAML configuration file, applies the defaults, and
// validates the result. An empty path yields a defaults-only configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("backend", BackendAPI)
	v.SetDefault("auto_remove", true)
	v.SetDefault("name_prefix", DefaultNamePrefix)
	v.SetDefault("command_template", DefaultCommandTemplate)
	v.SetDefault("executable", DefaultExecutable)

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file - malformed YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags plus the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	if c.Memory != "" {
		if _, err := units.RAMInBytes(c.Memory); err != nil {
			return container.NewConfigError("field 'memory' has invalid size %q", c.Memory)
		}
	}
	for _, placeholder := range []string{"{subcommand}", "{args}"} {
		if !strings.Contains(c.CommandTemplate, placeholder) {
			return container.NewConfigError("field 'command_template' must contain the %s placeholder", placeholder)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// configuration errors.
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return container.NewConfigError("validation failed: %v", err)
	}

	var messages []string
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}

	if len(messages) == 1 {
		return container.NewConfigError("validation error: %s", messages[0])
	}

	result := "validation errors:\n"
	for _, msg := range messages {
		result += fmt.Sprintf("  - %s\n", msg)
	}
	return container.NewConfigError("%s", result)
}

// formatFieldError formats a single validation error.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, e.Tag())
	}
}
