package container

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks. The typed errors below unwrap to
// these so callers can branch without knowing the concrete type.
var (
	ErrContainerNotFound = errors.New("container not found")
	ErrImageNotFound     = errors.New("image not found")
	ErrConfiguration     = errors.New("configuration invalid")
)

// NotFoundError reports that the backend has no container with the given id.
type NotFoundError struct {
	ContainerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("invalid container id: %s", e.ContainerID)
}

func (e *NotFoundError) Unwrap() error { return ErrContainerNotFound }

// ImageNotFoundError reports that the backend has never pulled the image.
type ImageNotFoundError struct {
	Image string
}

func (e *ImageNotFoundError) Error() string {
	return fmt.Sprintf("image not pulled: %s", e.Image)
}

func (e *ImageNotFoundError) Unwrap() error { return ErrImageNotFound }

// ConfigError reports an unusable or missing setting, detected either at
// configuration validation or at the point a default is needed and absent.
// It is fatal to the current call and never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// NewConfigError builds a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// CLIError carries the full diagnostic context of a runtime CLI invocation
// that failed for a reason other than a recognized not-found condition.
type CLIError struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *CLIError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}
