package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a raw configuration value from a source
// (environment, memory, etc)
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Typed is a config.Config that yields values of a concrete type
type Typed[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

// Duration provides a time.Duration typed config.Config.
type Duration = Typed[time.Duration]

// String provides a string typed config.Config.
type String = Typed[string]

// Uint64 provides a uint64 typed config.Config.
type Uint64 = Typed[uint64]
