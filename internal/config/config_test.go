package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockhand/pkg/container"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dockhand.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendAPI, cfg.Backend)
	assert.True(t, cfg.AutoRemove)
	assert.Equal(t, DefaultNamePrefix, cfg.NamePrefix)
	assert.Equal(t, DefaultCommandTemplate, cfg.CommandTemplate)
	assert.Equal(t, DefaultExecutable, cfg.Executable)
	assert.Empty(t, cfg.Host)
	assert.False(t, cfg.ForceTLSVerify)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend: docker_cli
host: tcp://10.0.0.5:2376
force_tlsverify: true
image: alpine:3.20
cpus: 1.5
memory: 512m
name_prefix: worker
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendCLI, cfg.Backend)
	assert.Equal(t, "tcp://10.0.0.5:2376", cfg.Host)
	assert.True(t, cfg.ForceTLSVerify)
	assert.Equal(t, "alpine:3.20", cfg.Image)
	assert.Equal(t, 1.5, cfg.CPUs)
	assert.Equal(t, "512m", cfg.Memory)
	assert.Equal(t, "worker", cfg.NamePrefix)
	// Defaults still apply underneath the file.
	assert.True(t, cfg.AutoRemove)
	assert.Equal(t, DefaultCommandTemplate, cfg.CommandTemplate)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "backend: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend:         BackendAPI,
			CommandTemplate: DefaultCommandTemplate,
			Executable:      DefaultExecutable,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "podman" },
			wantErr: "must be one of: docker docker_cli",
		},
		{
			name:    "negative cpus",
			mutate:  func(c *Config) { c.CPUs = -1 },
			wantErr: "must be at least 0",
		},
		{
			name:    "invalid memory size",
			mutate:  func(c *Config) { c.Memory = "12xb" },
			wantErr: "invalid size",
		},
		{
			name:    "template missing subcommand placeholder",
			mutate:  func(c *Config) { c.CommandTemplate = "{executable} {args}" },
			wantErr: "{subcommand}",
		},
		{
			name:    "template missing args placeholder",
			mutate:  func(c *Config) { c.CommandTemplate = "{executable} {subcommand}" },
			wantErr: "{args}",
		},
		{
			name:    "empty executable",
			mutate:  func(c *Config) { c.Executable = "" },
			wantErr: "required but missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, container.ErrConfiguration)
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeConfig(t, "backend: podman\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrConfiguration)
}
