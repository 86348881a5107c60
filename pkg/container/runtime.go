// Package container defines the backend-agnostic container lifecycle
// contract: the Runtime interface implemented by the CLI-driven and
// API-driven Docker backends, the domain objects they return, and the
// abstract option vocabulary both translate from.
package container

import (
	"context"
	"errors"
	"log/slog"
)

// Abstract run option keys accepted by Runtime.Run. Each key is translated
// per backend through its option mapping table; a key a backend cannot
// express is never partially applied.
const (
	OptEnvironment       = "environment"
	OptVolumes           = "volumes"
	OptName              = "name"
	OptDetach            = "detach"
	OptPublishAllPorts   = "publish_all_ports"
	OptPublishPortRandom = "publish_port_random"
	OptAutoRemove        = "auto_remove"
	OptCPUs              = "cpus"
	OptMemory            = "memory"
)

// Opts maps abstract option names to values for a single Run invocation.
type Opts map[string]any

// Clone returns a shallow copy so backends can consume keys without
// mutating the caller's map.
func (o Opts) Clone() Opts {
	c := make(Opts, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// Runtime is the uniform contract over a concrete container backend.
// Callers depend only on this interface and never learn which backend is
// active. All operations block until they complete or fail; no retries
// happen below this interface.
type Runtime interface {
	// Run creates and starts a container running command in image. An empty
	// image falls back to the configured default; if neither is set the call
	// fails with a ConfigError before any backend work happens.
	Run(ctx context.Context, command []string, image string, opts Opts) (*Container, error)

	// Inspect returns the raw inspection payload for a container. A missing
	// container surfaces as a NotFoundError carrying the id.
	Inspect(ctx context.Context, containerID string) (map[string]any, error)

	// ImageInspect returns the raw inspection payload for an image. An image
	// that was never pulled surfaces as an ImageNotFoundError.
	ImageInspect(ctx context.Context, image string) (map[string]any, error)

	// ImageRepoDigest resolves the canonical <name>@<digest> reference for
	// an image, or returns the image argument unchanged when no digest is
	// resolvable because the image has never been pulled.
	ImageRepoDigest(ctx context.Context, image string) (string, error)

	// Host exposes the configured connection target, read-only.
	Host() string
}

// RepoDigest extracts the first repo digest from an image inspection
// payload. Both backends hand payloads through as decoded JSON, so the
// digest list may arrive as []any or []string.
func RepoDigest(payload map[string]any) (string, bool) {
	switch digests := payload["RepoDigests"].(type) {
	case []any:
		if len(digests) > 0 {
			if s, ok := digests[0].(string); ok && s != "" {
				return s, true
			}
		}
	case []string:
		if len(digests) > 0 && digests[0] != "" {
			return digests[0], true
		}
	}
	return "", false
}

// ResolveRepoDigest is the shared ImageRepoDigest behavior used by both
// backends. A missing image is an explicit fallback to the original
// reference, not an error; anything else propagates.
func ResolveRepoDigest(ctx context.Context, rt Runtime, image string) (string, error) {
	payload, err := rt.ImageInspect(ctx, image)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			slog.Warn("image not pulled, cannot resolve digest", "image", image)
			return image, nil
		}
		return "", err
	}
	if digest, ok := RepoDigest(payload); ok {
		return digest, nil
	}
	return image, nil
}

// ResolveImage picks the explicit image argument over the configured
// default image.
func ResolveImage(image, configured string) (string, error) {
	if image != "" {
		return image, nil
	}
	if configured != "" {
		return configured, nil
	}
	return "", NewConfigError("no image supplied and no default image configured")
}
