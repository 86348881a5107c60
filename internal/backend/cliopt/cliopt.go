// Package cliopt is the declarative option mapping for the CLI backend: for
// each abstract run option, the docker flag it renders to and the value
// encoding that turns the abstract value into shell-safe tokens.
package cliopt

import (
	"fmt"
	"sort"
	"strconv"

	"mvdan.cc/sh/v3/syntax"

	"dockhand/pkg/container"
)

// Kind selects the value encoding for a flag.
type Kind int

const (
	// Boolean renders the bare flag when the value is true, nothing when
	// false.
	Boolean Kind = iota
	// String renders the flag followed by one shell-escaped literal.
	String
	// ListOfKVPairs renders one flag per KEY=VALUE pair.
	ListOfKVPairs
	// DockerVolumes renders one flag per normalized volume specification.
	DockerVolumes
)

// Entry describes how one abstract option renders on the command line.
type Entry struct {
	Flag string
	Kind Kind
}

// RunOptions maps the abstract run option vocabulary to docker run flags.
// A key absent from this table has no CLI rendering and is skipped whole.
var RunOptions = map[string]Entry{
	container.OptEnvironment:       {Flag: "--env", Kind: ListOfKVPairs},
	container.OptVolumes:           {Flag: "--volume", Kind: DockerVolumes},
	container.OptName:              {Flag: "--name", Kind: String},
	container.OptDetach:            {Flag: "--detach", Kind: Boolean},
	container.OptPublishAllPorts:   {Flag: "--publish-all", Kind: Boolean},
	container.OptPublishPortRandom: {Flag: "--publish", Kind: String},
	container.OptAutoRemove:        {Flag: "--rm", Kind: Boolean},
	container.OptCPUs:              {Flag: "--cpus", Kind: String},
	container.OptMemory:            {Flag: "--memory", Kind: String},
}

// Quote shell-escapes a single argument value.
func Quote(s string) (string, error) {
	quoted, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return "", container.NewConfigError("value %q cannot be shell-quoted: %v", s, err)
	}
	return quoted, nil
}

// Encode renders one option value into its CLI tokens. Tokens are already
// shell-escaped and ready to join into the argument string. A value of an
// unexpected shape aborts with a ConfigError before anything runs.
func (e Entry) Encode(value any) ([]string, error) {
	switch e.Kind {
	case Boolean:
		b, ok := value.(bool)
		if !ok {
			return nil, container.NewConfigError("option %s expects a boolean, got %T", e.Flag, value)
		}
		if !b {
			return nil, nil
		}
		return []string{e.Flag}, nil

	case String:
		s, err := Stringify(value)
		if err != nil {
			return nil, err
		}
		quoted, err := Quote(s)
		if err != nil {
			return nil, err
		}
		return []string{e.Flag, quoted}, nil

	case ListOfKVPairs:
		pairs, err := kvPairs(value)
		if err != nil {
			return nil, container.NewConfigError("option %s: %v", e.Flag, err)
		}
		tokens := make([]string, 0, 2*len(pairs))
		for _, pair := range pairs {
			quoted, err := Quote(pair)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, e.Flag, quoted)
		}
		return tokens, nil

	case DockerVolumes:
		volumes, err := container.ParseVolumes(value)
		if err != nil {
			return nil, err
		}
		tokens := make([]string, 0, 2*len(volumes))
		for _, v := range volumes {
			quoted, err := Quote(v.String())
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, e.Flag, quoted)
		}
		return tokens, nil
	}

	return nil, container.NewConfigError("unknown CLI encoding kind %d", e.Kind)
}

// Stringify converts a scalar option value to its literal CLI form. Floats
// keep their shortest decimal representation, so cpus 1.5 renders as "1.5".
func Stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", container.NewConfigError("cannot render value of type %T as a CLI argument", value)
	}
}

// kvPairs normalizes environment-style values to a sorted KEY=VALUE list.
func kvPairs(value any) ([]string, error) {
	switch v := value.(type) {
	case map[string]string:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, key := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, v[key]))
		}
		return pairs, nil
	case map[string]any:
		flattened := make(map[string]string, len(v))
		for key, raw := range v {
			s, err := Stringify(raw)
			if err != nil {
				return nil, err
			}
			flattened[key] = s
		}
		return kvPairs(flattened)
	case []string:
		return v, nil
	case []any:
		pairs := make([]string, 0, len(v))
		for _, item := range v {
			pair, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list entry of type %T is not a KEY=VALUE string", item)
			}
			pairs = append(pairs, pair)
		}
		return pairs, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a key/value collection", value)
	}
}
