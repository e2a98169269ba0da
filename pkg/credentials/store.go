// Package credentials provides API key resolution for the Veria SDK.
// It includes a small store interface with environment and static
// implementations, so callers can plug in external vaults without the
// SDK knowing about them.
package credentials

import (
	"context"
	"errors"
	"os"
	"strings"
)

// KeyAPIKey is the canonical credential key for the Veria API key.
// With the default EnvStore prefix it resolves to VERIA_API_KEY.
const KeyAPIKey = "api_key"

// DefaultEnvPrefix is the environment variable prefix used by the SDK.
const DefaultEnvPrefix = "VERIA_"

// ErrCredentialNotFound is returned when a store has no value for a key.
var ErrCredentialNotFound = errors.New("credential not found")

// Store is the interface for credential retrieval.
// Implement this interface to use custom credential backends
// (Vault, AWS Secrets Manager, etc.).
type Store interface {
	// Get retrieves a credential value by key.
	Get(ctx context.Context, key string) (string, error)
}

// =============================================================================
// Environment Store - Reads from environment variables
// =============================================================================

// EnvStore implements Store using environment variables.
// It's the simplest store implementation and suitable for CI/CD environments.
type EnvStore struct {
	// Prefix is prepended to all key lookups (e.g., "VERIA_")
	Prefix string
}

// NewEnvStore creates a new environment variable credential store
// with the default VERIA_ prefix.
func NewEnvStore() *EnvStore {
	return &EnvStore{Prefix: DefaultEnvPrefix}
}

func (s *EnvStore) envKey(key string) string {
	envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	envKey = strings.ReplaceAll(envKey, "-", "_")
	return s.Prefix + envKey
}

func (s *EnvStore) Get(ctx context.Context, key string) (string, error) {
	value := os.Getenv(s.envKey(key))
	if value == "" {
		return "", ErrCredentialNotFound
	}
	return value, nil
}

// =============================================================================
// Static Store - Fixed values, mainly for tests and explicit wiring
// =============================================================================

// StaticStore implements Store over a fixed map of values.
type StaticStore struct {
	values map[string]string
}

// NewStaticStore creates a store that serves the given values.
func NewStaticStore(values map[string]string) *StaticStore {
	return &StaticStore{values: values}
}

func (s *StaticStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok || value == "" {
		return "", ErrCredentialNotFound
	}
	return value, nil
}

// =============================================================================
// Resolution
// =============================================================================

// Resolve returns the first credential found for key across the given
// stores, in order. It returns ErrCredentialNotFound when no store has
// the key; other store errors abort the chain.
func Resolve(ctx context.Context, key string, stores ...Store) (string, error) {
	for _, store := range stores {
		value, err := store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrCredentialNotFound) {
			return "", err
		}
	}
	return "", ErrCredentialNotFound
}
