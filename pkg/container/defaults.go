package container

import (
	"fmt"

	"github.com/google/uuid"
)

// Defaults are the configuration-level option overrides applied on every
// Run call. Resource ceilings configured at startup win over per-call
// values; auto_remove and the generated name only fill in when the caller
// left them unset. They are advisory per-call overrides, not mutable
// backend state.
type Defaults struct {
	CPUs       float64
	Memory     string
	AutoRemove bool
	NamePrefix string
}

// Apply folds the defaults into a copy of opts. The caller's map is never
// modified.
func (d Defaults) Apply(opts Opts) Opts {
	merged := opts.Clone()
	if d.CPUs > 0 {
		merged[OptCPUs] = d.CPUs
	}
	if d.Memory != "" {
		merged[OptMemory] = d.Memory
	}
	if _, ok := merged[OptAutoRemove]; !ok {
		merged[OptAutoRemove] = d.AutoRemove
	}
	if _, ok := merged[OptName]; !ok && d.NamePrefix != "" {
		merged[OptName] = fmt.Sprintf("%s-%s", d.NamePrefix, uuid.New().String())
	}
	return merged
}
