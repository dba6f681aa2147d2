// Package credstore provides scoped persistent key-value stores for session credentials.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("credential not found")

// TokenKey is the key the bearer credential is stored under.
const TokenKey = "access_token"

// Store is a scoped key-value store.
// Writes are durable when the call returns; Delete succeeds for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// normalizeScope maps a profile name to a safe scope identifier.
func normalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return "default"
	}
	return scope
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("credential key must not be empty")
	}
	return nil
}
