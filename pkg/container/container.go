package container

import "context"

// Container is a value-like descriptor for a backend-created container. It
// holds a non-owning reference to the Runtime that created it so
// inspect-style calls route to the correct backend; the backend itself
// stays the source of truth for the container's state.
type Container struct {
	ID string

	rt Runtime
}

// New wraps a backend-assigned container id.
func New(rt Runtime, id string) *Container {
	return &Container{ID: id, rt: rt}
}

// Inspect re-queries the backend for the container's raw inspection payload.
func (c *Container) Inspect(ctx context.Context) (map[string]any, error) {
	return c.rt.Inspect(ctx, c.ID)
}

// Runtime returns the runtime that created this container.
func (c *Container) Runtime() Runtime { return c.rt }
