package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: not found")

// Store is durable string key/value storage that survives process restarts.
//
// Multi-key operations (SetMany, Delete) are atomic: either every key is
// written/removed, or none are. Callers that persist a record spread across
// several keys rely on this to never observe a partial record.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes a single key.
	Set(ctx context.Context, key, value string) error

	// SetMany writes all entries as a unit.
	SetMany(ctx context.Context, entries map[string]string) error

	// Delete removes all given keys as a unit. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
