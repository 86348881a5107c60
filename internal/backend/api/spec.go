package api

import (
	"fmt"
	"sort"
	"strconv"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"

	"dockhand/pkg/container"
)

// nanoCPUUnit is the Engine's CPU quota unit: one full CPU is 1e9
// nano-CPUs. The conversion happens only at encode time; configuration
// keeps the human-readable value.
const nanoCPUUnit = 1e9

// resourceOptions maps abstract keys onto the resources spec nested inside
// the host configuration.
var resourceOptions = map[string]func(*containertypes.Resources, any) error{
	container.OptCPUs:   setNanoCPUs,
	container.OptMemory: setMemoryLimit,
}

// hostConfigOptions maps abstract keys onto top-level host configuration
// parameters. publish_port_random and volumes are normalized in
// buildCreateSpecs before this table applies.
var hostConfigOptions = map[string]func(*containertypes.HostConfig, any) error{
	container.OptAutoRemove:      setAutoRemove,
	container.OptPublishAllPorts: setPublishAllPorts,
}

func setNanoCPUs(res *containertypes.Resources, value any) error {
	cpus, err := toFloat(value)
	if err != nil {
		return container.NewConfigError("option cpus: %v", err)
	}
	res.NanoCPUs = int64(cpus * nanoCPUUnit)
	return nil
}

func setMemoryLimit(res *containertypes.Resources, value any) error {
	size, err := toScalarString(value)
	if err != nil {
		return container.NewConfigError("option memory: %v", err)
	}
	limit, err := units.RAMInBytes(size)
	if err != nil {
		return container.NewConfigError("option memory: invalid size %q", size)
	}
	res.Memory = limit
	return nil
}

func setAutoRemove(hc *containertypes.HostConfig, value any) error {
	remove, ok := value.(bool)
	if !ok {
		return container.NewConfigError("option auto_remove expects a boolean, got %T", value)
	}
	hc.AutoRemove = remove
	return nil
}

func setPublishAllPorts(hc *containertypes.HostConfig, value any) error {
	publish, ok := value.(bool)
	if !ok {
		return container.NewConfigError("option publish_all_ports expects a boolean, got %T", value)
	}
	hc.PublishAllPorts = publish
	return nil
}

// buildResources reduces the matching keys out of opts into the nested
// resources spec and reports which keys it consumed. opts is never mutated.
func buildResources(opts container.Opts) (containertypes.Resources, []string, error) {
	var res containertypes.Resources
	var consumed []string
	for key, apply := range resourceOptions {
		value, ok := opts[key]
		if !ok {
			continue
		}
		if err := apply(&res, value); err != nil {
			return containertypes.Resources{}, nil, err
		}
		consumed = append(consumed, key)
	}
	return res, consumed, nil
}

// buildHostConfig builds the host configuration aggregate. The nested
// resources spec reduces first so each key is consumed at exactly one
// nesting level and never double-applied.
func buildHostConfig(opts container.Opts) (*containertypes.HostConfig, []string, error) {
	hc := &containertypes.HostConfig{}

	res, consumed, err := buildResources(opts)
	if err != nil {
		return nil, nil, err
	}
	hc.Resources = res

	taken := make(map[string]bool, len(consumed))
	for _, key := range consumed {
		taken[key] = true
	}
	for key, apply := range hostConfigOptions {
		if taken[key] {
			continue
		}
		value, ok := opts[key]
		if !ok {
			continue
		}
		if err := apply(hc, value); err != nil {
			return nil, nil, err
		}
		consumed = append(consumed, key)
	}
	return hc, consumed, nil
}

// buildCreateSpecs separates the abstract options into container creation
// parameters and host/resource configuration. The parameter schema on this
// backend is closed: any key left over after the tables reduce is rejected
// before the daemon is ever called, so an unknown option can never be
// partially applied.
func buildCreateSpecs(opts container.Opts) (*containertypes.Config, *containertypes.HostConfig, string, error) {
	remaining := opts.Clone()
	cfg := &containertypes.Config{}

	var name string
	if value, ok := remaining[container.OptName]; ok {
		s, ok := value.(string)
		if !ok {
			return nil, nil, "", container.NewConfigError("option name expects a string, got %T", value)
		}
		name = s
		delete(remaining, container.OptName)
	}

	// API-created containers are detached by construction: create+start
	// returns immediately. Consumed so it is never half-applied.
	delete(remaining, container.OptDetach)

	if value, ok := remaining[container.OptEnvironment]; ok {
		env, err := environmentList(value)
		if err != nil {
			return nil, nil, "", err
		}
		cfg.Env = env
		delete(remaining, container.OptEnvironment)
	}

	var portBindings nat.PortMap
	if value, ok := remaining[container.OptPublishPortRandom]; ok {
		port, err := toPort(value)
		if err != nil {
			return nil, nil, "", err
		}
		bound := nat.Port(fmt.Sprintf("%d/tcp", port))
		cfg.ExposedPorts = nat.PortSet{bound: struct{}{}}
		// An empty binding publishes to a daemon-assigned host port.
		portBindings = nat.PortMap{bound: []nat.PortBinding{{}}}
		delete(remaining, container.OptPublishPortRandom)
	}

	var binds []string
	if value, ok := remaining[container.OptVolumes]; ok {
		volumes, err := container.ParseVolumes(value)
		if err != nil {
			return nil, nil, "", err
		}
		var paths map[string]struct{}
		paths, binds = volumesToNative(volumes)
		cfg.Volumes = paths
		delete(remaining, container.OptVolumes)
	}

	hc, consumed, err := buildHostConfig(remaining)
	if err != nil {
		return nil, nil, "", err
	}
	hc.PortBindings = portBindings
	hc.Binds = binds
	for _, key := range consumed {
		delete(remaining, key)
	}

	if len(remaining) > 0 {
		leftover := make([]string, 0, len(remaining))
		for key := range remaining {
			leftover = append(leftover, key)
		}
		sort.Strings(leftover)
		return nil, nil, "", container.NewConfigError("options not supported by the API backend: %v", leftover)
	}
	return cfg, hc, name, nil
}

// volumesToNative converts normalized volumes into the create call's
// (paths, binds) pair.
func volumesToNative(volumes []container.Volume) (map[string]struct{}, []string) {
	paths := make(map[string]struct{}, len(volumes))
	binds := make([]string, 0, len(volumes))
	for _, v := range volumes {
		path, bind := v.ToNative()
		paths[path] = struct{}{}
		binds = append(binds, bind)
	}
	return paths, binds
}

// environmentList normalizes environment values to a sorted KEY=VALUE list.
func environmentList(value any) ([]string, error) {
	switch v := value.(type) {
	case map[string]string:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		env := make([]string, 0, len(keys))
		for _, key := range keys {
			env = append(env, fmt.Sprintf("%s=%s", key, v[key]))
		}
		return env, nil
	case map[string]any:
		flattened := make(map[string]string, len(v))
		for key, raw := range v {
			s, err := toScalarString(raw)
			if err != nil {
				return nil, container.NewConfigError("option environment: %v", err)
			}
			flattened[key] = s
		}
		return environmentList(flattened)
	case []string:
		return v, nil
	case []any:
		env := make([]string, 0, len(v))
		for _, item := range v {
			pair, ok := item.(string)
			if !ok {
				return nil, container.NewConfigError("option environment: entry of type %T is not a KEY=VALUE string", item)
			}
			env = append(env, pair)
		}
		return env, nil
	default:
		return nil, container.NewConfigError("option environment expects a key/value collection, got %T", value)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric value %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

func toScalarString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a string or number, got %T", value)
	}
}

func toPort(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return validPort(v)
	case int64:
		return validPort(int(v))
	case float64:
		return validPort(int(v))
	case string:
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, container.NewConfigError("option publish_port_random: invalid port %q", v)
		}
		return validPort(port)
	default:
		return 0, container.NewConfigError("option publish_port_random expects a port number, got %T", value)
	}
}

func validPort(port int) (int, error) {
	if port < 1 || port > 65535 {
		return 0, container.NewConfigError("option publish_port_random: port %d out of range", port)
	}
	return port, nil
}
