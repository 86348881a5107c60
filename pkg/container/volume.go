package container

import (
	"fmt"
	"sort"
	"strings"
)

// Volume describes one host-path-to-container-path binding. An empty Mode
// means the backend default (read-write); it is only rendered when set.
type Volume struct {
	HostPath      string
	ContainerPath string
	Mode          string
}

// ParseSpec parses a "host", "host:container" or "host:container:mode"
// volume specification. A bare path binds to the same path in the
// container.
func ParseSpec(spec string) (Volume, error) {
	parts := strings.Split(spec, ":")
	var v Volume
	switch len(parts) {
	case 1:
		v = Volume{HostPath: parts[0], ContainerPath: parts[0]}
	case 2:
		v = Volume{HostPath: parts[0], ContainerPath: parts[1]}
	case 3:
		v = Volume{HostPath: parts[0], ContainerPath: parts[1], Mode: parts[2]}
	default:
		return Volume{}, NewConfigError("invalid volume specification %q", spec)
	}
	return v, v.validate()
}

func (v Volume) validate() error {
	if v.HostPath == "" || v.ContainerPath == "" {
		return NewConfigError("volume %q is missing a path", v.String())
	}
	switch v.Mode {
	case "", "ro", "rw":
		return nil
	}
	return NewConfigError("invalid volume mode %q, expected ro or rw", v.Mode)
}

// String renders the canonical host:container[:mode] form used both as the
// CLI flag value and as the API bind specification.
func (v Volume) String() string {
	spec := fmt.Sprintf("%s:%s", v.HostPath, v.ContainerPath)
	if v.Mode != "" {
		spec += ":" + v.Mode
	}
	return spec
}

// ToNative returns the container-visible path and the bind specification,
// the two halves of the API backend's (paths, binds) pair.
func (v Volume) ToNative() (string, string) {
	return v.ContainerPath, v.String()
}

// ParseVolumes normalizes the accepted volume input shapes to one canonical
// list:
//
//   - a list of path specs: ["/host/vol", "/h:/c:ro"]
//   - a mapping of host path to container path: {"/h": "/c"}
//   - a mapping of host path to {bind, mode}: {"/h": {"bind": "/c", "mode": "ro"}}
//
// Mapping shapes are returned in host-path order so equivalent inputs
// encode identically.
func ParseVolumes(value any) ([]Volume, error) {
	switch val := value.(type) {
	case []Volume:
		for _, v := range val {
			if err := v.validate(); err != nil {
				return nil, err
			}
		}
		return val, nil
	case Volume:
		return ParseVolumes([]Volume{val})
	case []string:
		vols := make([]Volume, 0, len(val))
		for _, spec := range val {
			v, err := ParseSpec(spec)
			if err != nil {
				return nil, err
			}
			vols = append(vols, v)
		}
		return vols, nil
	case []any:
		specs := make([]string, 0, len(val))
		for _, item := range val {
			spec, ok := item.(string)
			if !ok {
				return nil, NewConfigError("invalid volume list entry of type %T", item)
			}
			specs = append(specs, spec)
		}
		return ParseVolumes(specs)
	case map[string]string:
		generic := make(map[string]any, len(val))
		for host, guest := range val {
			generic[host] = guest
		}
		return ParseVolumes(generic)
	case map[string]any:
		hosts := make([]string, 0, len(val))
		for host := range val {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)
		vols := make([]Volume, 0, len(hosts))
		for _, host := range hosts {
			v, err := guestVolume(host, val[host])
			if err != nil {
				return nil, err
			}
			vols = append(vols, v)
		}
		return vols, nil
	default:
		return nil, NewConfigError("invalid volumes value of type %T", value)
	}
}

func guestVolume(host string, guest any) (Volume, error) {
	switch opts := guest.(type) {
	case string:
		v := Volume{HostPath: host, ContainerPath: opts}
		return v, v.validate()
	case map[string]string:
		generic := make(map[string]any, len(opts))
		for k, val := range opts {
			generic[k] = val
		}
		return guestVolume(host, generic)
	case map[string]any:
		bind, ok := opts["bind"].(string)
		if !ok || bind == "" {
			return Volume{}, NewConfigError("volume %q has no bind path", host)
		}
		v := Volume{HostPath: host, ContainerPath: bind}
		if mode, ok := opts["mode"].(string); ok {
			v.Mode = mode
		}
		return v, v.validate()
	default:
		return Volume{}, NewConfigError("invalid volume options for %q of type %T", host, guest)
	}
}
