// Package mocks provides mock implementations for testing.
// This follows AWS SDK, Google Cloud SDK patterns for testability.
package mocks

import (
	"context"
	"sync"

	"github.com/veriahq/sdk/pkg/core"
	"github.com/veriahq/sdk/pkg/screening"
)

// =============================================================================
// Mock Screener
// =============================================================================

// MockScreener is a mock implementation of core.Screener for testing.
// Results can be scripted per input, or ScreenFn can be set for full
// control. All methods are safe for concurrent use.
type MockScreener struct {
	mu sync.Mutex

	// ScreenFn is called when Screen is invoked. It takes precedence
	// over scripted results.
	ScreenFn func(ctx context.Context, input string) (*screening.ScreenResult, error)

	// Results maps inputs to scripted results.
	Results map[string]*screening.ScreenResult

	// Errors maps inputs to scripted errors.
	Errors map[string]error

	// Call tracking
	ScreenCalls []ScreenCall
}

type ScreenCall struct {
	Input string
}

// NewMockScreener creates a mock with empty scripts.
func NewMockScreener() *MockScreener {
	return &MockScreener{
		Results: make(map[string]*screening.ScreenResult),
		Errors:  make(map[string]error),
	}
}

// WithResult scripts a result for an input. Returns the mock for chaining.
func (m *MockScreener) WithResult(input string, result *screening.ScreenResult) *MockScreener {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[input] = result
	return m
}

// WithError scripts an error for an input. Returns the mock for chaining.
func (m *MockScreener) WithError(input string, err error) *MockScreener {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[input] = err
	return m
}

func (m *MockScreener) Screen(ctx context.Context, input string) (*screening.ScreenResult, error) {
	m.mu.Lock()
	m.ScreenCalls = append(m.ScreenCalls, ScreenCall{Input: input})
	fn := m.ScreenFn
	err := m.Errors[input]
	result := m.Results[input]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, input)
	}
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	// Default: a clean low-risk result for any unscripted input.
	return &screening.ScreenResult{
		Score:    0,
		Risk:     screening.RiskLow,
		Chain:    "ethereum",
		Resolved: input,
		Details: screening.ScreenDetails{
			CheckedLists: []string{"OFAC"},
			AddressType:  screening.AddressTypeWallet,
		},
	}, nil
}

// Calls returns a snapshot of recorded calls.
func (m *MockScreener) Calls() []ScreenCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]ScreenCall, len(m.ScreenCalls))
	copy(calls, m.ScreenCalls)
	return calls
}

// Ensure MockScreener implements core.Screener
var _ core.Screener = (*MockScreener)(nil)
