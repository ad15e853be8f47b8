package engine

import "errors"

var (
	// ErrUnknownPlugin is recorded when a batch names an id that is not
	// present in the host's plugin path mapping.
	ErrUnknownPlugin = errors.New("engine: unknown plugin id")

	// ErrNoRunner is recorded when no registered runner recognizes a
	// plugin folder as one of its own.
	ErrNoRunner = errors.New("engine: no runner for plugin")

	// ErrClosed is returned by RunPlugins after Close.
	ErrClosed = errors.New("engine: coordinator closed")
)
