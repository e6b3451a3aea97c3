package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBlueprint is returned when a pipe is registered on something that cannot own pipes.
	ErrInvalidBlueprint = errors.New("not a valid blueprint")
	// ErrNoTarget is returned when To or From is called without a target.
	ErrNoTarget = errors.New("pipe target is required")
	// ErrForeignTarget is returned when a target blueprint belongs to another engine.
	ErrForeignTarget = errors.New("pipe target belongs to another engine")
	// ErrNoInput is returned when a "to" target has no input handler.
	ErrNoInput = errors.New("blueprint does not support input")
	// ErrNoEvents is returned when a "from" target has no event handler.
	ErrNoEvents = errors.New("blueprint does not support events")
	// ErrAlreadyDefined is returned when a name is defined again with another definition.
	ErrAlreadyDefined = errors.New("blueprint already defined")
	// ErrNotFound is returned by loaders and sources for unknown blueprints.
	ErrNotFound = errors.New("blueprint not found")
	// ErrUnsupportedProtocol is returned when no source is registered for a protocol.
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
)

// ConfigurationError reports a wiring mistake: a bad pipe registration or a
// target lacking the handler its direction needs.
type ConfigurationError struct {
	Blueprint string
	Op        string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Blueprint, e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InitializationError reports an Init handler failure.
type InitializationError struct {
	Blueprint string
	Err       error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("init %s: %v", e.Blueprint, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// RuntimeStepError reports an error signalled into a flow.
// Step is the flow position that failed; -1 means an event source.
type RuntimeStepError struct {
	Blueprint string
	Step      int
	Err       error
}

func (e *RuntimeStepError) Error() string {
	return fmt.Sprintf("%s step %d: %v", e.Blueprint, e.Step, e.Err)
}

func (e *RuntimeStepError) Unwrap() error { return e.Err }

// LoadError reports a loader or validator failure for a blueprint name.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
