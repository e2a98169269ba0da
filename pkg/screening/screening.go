// Package screening defines the wire and result types for the Veria
// Compliance API. Screening is performed entirely server-side; these types
// are a faithful mapping of the documented JSON contract.
package screening

// Risk levels returned by the service, ordered low < medium < high < critical.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Known address types. The service may introduce new types without a client
// release, so AddressType is an open string rather than an enum.
const (
	AddressTypeWallet   = "wallet"
	AddressTypeContract = "contract"
	AddressTypeExchange = "exchange"
	AddressTypeMixer    = "mixer"
	AddressTypeENS      = "ens"
	AddressTypeIBAN     = "iban"
)

// ScreenRequest is the body of a screen call.
type ScreenRequest struct {
	// Input is the address, ENS name, or IBAN to screen. It is passed to the
	// service verbatim; validation and normalization are server-side.
	Input string `json:"input"`
}

// ScreenDetails holds the per-list screening outcome.
type ScreenDetails struct {
	// SanctionsHit is true if the address appears on a sanctions list.
	SanctionsHit bool `json:"sanctions_hit"`

	// PEPHit is true if the address is associated with a politically
	// exposed person.
	PEPHit bool `json:"pep_hit"`

	// WatchlistHit is true if the address is on any watchlist.
	WatchlistHit bool `json:"watchlist_hit"`

	// CheckedLists names the sanctions databases that were checked.
	CheckedLists []string `json:"checked_lists"`

	// AddressType classifies the input (wallet, contract, exchange, mixer,
	// ens, iban, or a newer type the service has introduced).
	AddressType string `json:"address_type"`
}

// ScreenResult is the outcome of screening a single input.
type ScreenResult struct {
	// Score is the risk score from 0-100.
	Score int `json:"score"`

	// Risk is the risk level derived server-side from the score.
	Risk string `json:"risk"`

	// Chain is the detected blockchain.
	Chain string `json:"chain"`

	// Resolved is the resolved address (ENS names resolved to hex).
	Resolved string `json:"resolved"`

	// LatencyMS is the server-side processing time in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Details holds the per-list outcome.
	Details ScreenDetails `json:"details"`
}

// ShouldBlock reports whether the screened input should be blocked for
// compliance: a sanctions hit, or a risk level of high or critical.
// It is a pure function of the already-fetched result.
func (r *ScreenResult) ShouldBlock() bool {
	if r.Details.SanctionsHit {
		return true
	}
	return r.Risk == RiskHigh || r.Risk == RiskCritical
}

// ValidRisk reports whether level is one of the four documented risk levels.
func ValidRisk(level string) bool {
	switch level {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}
