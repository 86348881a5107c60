// Package backend constructs the configured container runtime. It decouples
// callers from the concrete CLI-driven and API-driven implementations.
package backend

import (
	"dockhand/internal/backend/api"
	"dockhand/internal/backend/cli"
	"dockhand/internal/config"
	"dockhand/pkg/container"
)

// New returns the runtime selected by the configuration's backend field.
// The configuration must already be validated.
func New(conf *config.Config) (container.Runtime, error) {
	switch conf.Backend {
	case config.BackendAPI:
		return api.New(conf), nil
	case config.BackendCLI:
		return cli.New(conf)
	default:
		return nil, container.NewConfigError("unsupported backend: %s", conf.Backend)
	}
}
