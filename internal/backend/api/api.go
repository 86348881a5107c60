// Package api implements the container Runtime against the Docker Engine
// API through the SDK client. The connection is established lazily on first
// use and shared for the lifetime of the runtime instance.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	containertypes "github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"dockhand/internal/config"
	"dockhand/pkg/container"
)

// Client is the slice of the Docker SDK client this runtime depends on.
// *client.Client satisfies it; tests substitute mocks.
type Client interface {
	ContainerCreate(ctx context.Context, config *containertypes.Config, hostConfig *containertypes.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (containertypes.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options containertypes.StartOptions) error
	ContainerInspectWithRaw(ctx context.Context, containerID string, getSize bool) (containertypes.InspectResponse, []byte, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (imagetypes.InspectResponse, []byte, error)
}

// Runtime drives a long-lived Engine API connection. The SDK client
// serializes its own network I/O and is safe for concurrent independent
// calls; the only synchronization added here is the once-guarded lazy
// construction.
type Runtime struct {
	conf      *config.Config
	defaults  container.Defaults
	newClient func() (Client, error)

	once      sync.Once
	client    Client
	clientErr error
}

var _ container.Runtime = (*Runtime)(nil)

// New creates an API runtime that dials the configured daemon on first use.
func New(conf *config.Config) *Runtime {
	rt := newRuntime(conf)
	rt.newClient = func() (Client, error) { return dial(conf) }
	return rt
}

// NewWithClient creates an API runtime bound to an already-constructed
// client.
func NewWithClient(conf *config.Config, cli Client) *Runtime {
	rt := newRuntime(conf)
	rt.newClient = func() (Client, error) { return cli, nil }
	return rt
}

func newRuntime(conf *config.Config) *Runtime {
	return &Runtime{
		conf: conf,
		defaults: container.Defaults{
			CPUs:       conf.CPUs,
			Memory:     conf.Memory,
			AutoRemove: conf.AutoRemove,
			NamePrefix: conf.NamePrefix,
		},
	}
}

// dial builds the SDK client from the configured connection target and TLS
// flag. With no host configured the standard DOCKER_* environment applies.
func dial(conf *config.Config) (Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if conf.Host != "" {
		opts = append(opts, client.WithHost(conf.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}
	if conf.ForceTLSVerify {
		opts = append(opts, client.WithTLSClientConfigFromEnv())
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return cli, nil
}

// apiClient returns the shared client, constructing it exactly once even
// under concurrent first use.
func (r *Runtime) apiClient() (Client, error) {
	r.once.Do(func() {
		r.client, r.clientErr = r.newClient()
	})
	return r.client, r.clientErr
}

// Run splits the abstract options into creation parameters and host
// configuration, then issues an explicit create followed by an explicit
// start. Creation does not imply running; if the start fails no Container
// is returned and the error names the orphaned id.
func (r *Runtime) Run(ctx context.Context, command []string, image string, opts container.Opts) (*container.Container, error) {
	cli, err := r.apiClient()
	if err != nil {
		return nil, err
	}
	resolved, err := container.ResolveImage(image, r.conf.Image)
	if err != nil {
		return nil, err
	}

	cfg, hostConfig, name, err := buildCreateSpecs(r.defaults.Apply(opts))
	if err != nil {
		return nil, err
	}
	cfg.Image = resolved
	cfg.Cmd = strslice.StrSlice(command)

	slog.Debug("creating container", "image", resolved, "name", name)
	resp, err := cli.ContainerCreate(ctx, cfg, hostConfig, nil, nil, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, &container.ImageNotFoundError{Image: resolved}
		}
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	slog.Debug("starting container", "id", resp.ID)
	if err := cli.ContainerStart(ctx, resp.ID, containertypes.StartOptions{}); err != nil {
		// The created container is deliberately left in place; the id in the
		// error lets an operator reconcile it.
		return nil, fmt.Errorf("container %s created but failed to start: %w", resp.ID, err)
	}
	return container.New(r, resp.ID), nil
}

// Inspect returns the raw inspection payload for a container.
func (r *Runtime) Inspect(ctx context.Context, containerID string) (map[string]any, error) {
	cli, err := r.apiClient()
	if err != nil {
		return nil, err
	}
	_, raw, err := cli.ContainerInspectWithRaw(ctx, containerID, false)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, &container.NotFoundError{ContainerID: containerID}
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", containerID, err)
	}
	return decodePayload(raw)
}

// ImageInspect returns the raw inspection payload for an image.
func (r *Runtime) ImageInspect(ctx context.Context, image string) (map[string]any, error) {
	cli, err := r.apiClient()
	if err != nil {
		return nil, err
	}
	_, raw, err := cli.ImageInspectWithRaw(ctx, image)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, &container.ImageNotFoundError{Image: image}
		}
		return nil, fmt.Errorf("failed to inspect image %s: %w", image, err)
	}
	return decodePayload(raw)
}

// ImageRepoDigest resolves the canonical <name>@<digest> reference, falling
// back to the image argument when the image was never pulled.
func (r *Runtime) ImageRepoDigest(ctx context.Context, image string) (string, error) {
	return container.ResolveRepoDigest(ctx, r, image)
}

// Host returns the configured connection target.
func (r *Runtime) Host() string { return r.conf.Host }

func decodePayload(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode inspect payload: %w", err)
	}
	return payload, nil
}
