// Package core provides the core interfaces for the Veria SDK.
// Consumers can depend on these instead of concrete types to substitute
// mocks in tests.
package core

import (
	"context"

	"github.com/veriahq/sdk/pkg/screening"
)

// Screener screens a single input (wallet address, ENS name, or IBAN)
// against the compliance service.
type Screener interface {
	// Screen performs exactly one screening call and returns the typed
	// result, or an *errors.Error describing the failure.
	Screen(ctx context.Context, input string) (*screening.ScreenResult, error)
}
