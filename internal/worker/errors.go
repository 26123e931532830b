package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRegistryRequired — Worker создан без tool registry.
	ErrRegistryRequired = errors.New("tool registry is required")

	// ErrBridgeRequired — Worker создан без execution bridge.
	ErrBridgeRequired = errors.New("execution bridge is required")

	// ErrPublisherRequired — Worker создан без publisher.
	ErrPublisherRequired = errors.New("publisher is required")
)
