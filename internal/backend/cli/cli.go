// Package cli implements the container Runtime by shelling out to the
// docker binary: one subprocess invocation per operation, built from the
// configured command template and parsed back from the CLI's JSON or
// tabular output.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"dockhand/internal/backend/cliopt"
	"dockhand/internal/config"
	"dockhand/pkg/container"
)

// Runtime drives the docker CLI.
type Runtime struct {
	conf     *config.Config
	exec     Executor
	defaults container.Defaults

	// command is the rendered template with only {subcommand} and {args}
	// left to substitute per call.
	command string
}

var _ container.Runtime = (*Runtime)(nil)

// New creates a CLI runtime using the real subprocess executor.
func New(conf *config.Config) (*Runtime, error) {
	return NewWithExecutor(conf, osExecutor{})
}

// NewWithExecutor creates a CLI runtime with an injected executor.
func NewWithExecutor(conf *config.Config, executor Executor) (*Runtime, error) {
	command, err := renderCommandTemplate(conf)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		conf:    conf,
		exec:    executor,
		command: command,
		defaults: container.Defaults{
			CPUs:       conf.CPUs,
			Memory:     conf.Memory,
			AutoRemove: conf.AutoRemove,
			NamePrefix: conf.NamePrefix,
		},
	}, nil
}

// renderCommandTemplate substitutes the construction-time placeholders: the
// executable and the global flags derived from the connection target and
// the TLS setting. The host flag precedes --tlsverify, both precede the
// subcommand.
func renderCommandTemplate(conf *config.Config) (string, error) {
	var global []string
	if conf.Host != "" {
		quoted, err := cliopt.Quote(conf.Host)
		if err != nil {
			return "", err
		}
		global = append(global, "--host", quoted)
	}
	if conf.ForceTLSVerify {
		global = append(global, "--tlsverify")
	}

	command := strings.NewReplacer(
		"{executable}", conf.Executable,
		"{global_kwopts}", strings.Join(global, " "),
	).Replace(conf.CommandTemplate)
	return command, nil
}

// runDocker renders the final command line for one subcommand, splits it
// into an argv vector and hands it to the executor.
func (r *Runtime) runDocker(ctx context.Context, subcommand, args string) (Result, error) {
	cmdline := strings.NewReplacer(
		"{subcommand}", subcommand,
		"{args}", args,
	).Replace(r.command)

	argv, err := shell.Fields(cmdline, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to split command %q: %w", cmdline, err)
	}
	if len(argv) == 0 {
		return Result{}, container.NewConfigError("command template rendered an empty command")
	}

	slog.Debug("executing runtime CLI", "command", cmdline)
	return r.exec.Exec(ctx, argv)
}

// encodeOpts renders the abstract options in sorted key order. Keys without
// a mapping entry have no CLI representation and are skipped whole, never
// partially applied.
func encodeOpts(opts container.Opts) (string, error) {
	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var tokens []string
	for _, key := range keys {
		entry, ok := cliopt.RunOptions[key]
		if !ok {
			slog.Warn("option not supported by the CLI backend, skipping", "option", key)
			continue
		}
		encoded, err := entry.Encode(opts[key])
		if err != nil {
			return "", err
		}
		tokens = append(tokens, encoded...)
	}
	return strings.Join(tokens, " "), nil
}

// Run builds and executes `docker run`; the captured standard output is the
// new container's identifier. No automatic inspection is performed.
func (r *Runtime) Run(ctx context.Context, command []string, image string, opts container.Opts) (*container.Container, error) {
	resolved, err := container.ResolveImage(image, r.conf.Image)
	if err != nil {
		return nil, err
	}

	kwopts, err := encodeOpts(r.defaults.Apply(opts))
	if err != nil {
		return nil, err
	}

	var tokens []string
	if kwopts != "" {
		tokens = append(tokens, kwopts)
	}
	quotedImage, err := cliopt.Quote(resolved)
	if err != nil {
		return nil, err
	}
	tokens = append(tokens, quotedImage)
	for _, arg := range command {
		quoted, err := cliopt.Quote(arg)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, quoted)
	}

	res, err := r.runDocker(ctx, "run", strings.Join(tokens, " "))
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, r.cliError("run", res)
	}

	id := strings.TrimSpace(res.Stdout)
	if id == "" {
		return nil, fmt.Errorf("docker run produced no container id (stderr: %s)", strings.TrimSpace(res.Stderr))
	}
	slog.Debug("created container", "id", id, "image", resolved)
	return container.New(r, id), nil
}

// Inspect runs `docker inspect` and returns the first element of the JSON
// array it prints.
func (r *Runtime) Inspect(ctx context.Context, containerID string) (map[string]any, error) {
	quoted, err := cliopt.Quote(containerID)
	if err != nil {
		return nil, err
	}
	res, err := r.runDocker(ctx, "inspect", quoted)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		if notFoundStderr(res.Stderr, "object", containerID) {
			return nil, &container.NotFoundError{ContainerID: containerID}
		}
		return nil, r.cliError("inspect", res)
	}

	payloads, err := parseJSONArray(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, &container.NotFoundError{ContainerID: containerID}
	}
	return payloads[0], nil
}

// ImageInspect runs `docker image inspect` and returns the first element of
// the JSON array it prints.
func (r *Runtime) ImageInspect(ctx context.Context, image string) (map[string]any, error) {
	quoted, err := cliopt.Quote(image)
	if err != nil {
		return nil, err
	}
	res, err := r.runDocker(ctx, "image inspect", quoted)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		if notFoundStderr(res.Stderr, "image", image) {
			return nil, &container.ImageNotFoundError{Image: image}
		}
		return nil, r.cliError("image inspect", res)
	}

	payloads, err := parseJSONArray(res.Stdout)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, &container.ImageNotFoundError{Image: image}
	}
	return payloads[0], nil
}

// ImageRepoDigest resolves the canonical <name>@<digest> reference, falling
// back to the image argument when the image was never pulled.
func (r *Runtime) ImageRepoDigest(ctx context.Context, image string) (string, error) {
	return container.ResolveRepoDigest(ctx, r, image)
}

// Host returns the configured connection target.
func (r *Runtime) Host() string { return r.conf.Host }

func (r *Runtime) cliError(subcommand string, res Result) *container.CLIError {
	return &container.CLIError{
		Command:  r.conf.Executable + " " + subcommand,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		ExitCode: res.ExitCode,
	}
}

// notFoundStderr reports whether stderr carries the backend's "no such"
// signature for the requested identifier. The match is deliberately exact
// modulo case and surrounding whitespace: a docker release that rewords the
// message degrades to a generic CLIError instead of a false positive. The
// compatibility risk of matching backend error text is confined here.
func notFoundStderr(stderr, noun, id string) bool {
	want := fmt.Sprintf("error: no such %s: %s", noun, id)
	return strings.EqualFold(strings.TrimSpace(stderr), want)
}

func parseJSONArray(stdout string) ([]map[string]any, error) {
	var payloads []map[string]any
	if err := json.Unmarshal([]byte(stdout), &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse inspect output: %w", err)
	}
	return payloads, nil
}
