package errors

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "with status",
			err:      &Error{Message: "Blocked", Code: "RATE_LIMIT", StatusCode: 429},
			expected: "veria: [RATE_LIMIT] Blocked (status 429)",
		},
		{
			name:     "without status",
			err:      &Error{Message: "Request timed out", Code: CodeTimeout},
			expected: "veria: [TIMEOUT] Request timed out",
		},
		{
			name:     "construction error",
			err:      New("API key is required", CodeMissingAPIKey),
			expected: "veria: [MISSING_API_KEY] API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &Error{Message: cause.Error(), Code: CodeNetworkError, Err: cause}

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	if New("no cause", CodeRequestFailed).Unwrap() != nil {
		t.Error("Unwrap() should return nil when there is no underlying error")
	}
}

func TestAsError(t *testing.T) {
	inner := &Error{Message: "boom", Code: CodeRequestFailed, StatusCode: 500}
	wrapped := fmt.Errorf("screen failed: %w", inner)

	e, ok := AsError(wrapped)
	if !ok {
		t.Fatal("AsError() should find *Error in the chain")
	}
	if e.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", e.StatusCode)
	}

	if _, ok := AsError(fmt.Errorf("plain error")); ok {
		t.Error("AsError() should not match a plain error")
	}
}

func TestCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"timeout matches", New("timed out", CodeTimeout), IsTimeout, true},
		{"timeout does not match network", New("dns failure", CodeNetworkError), IsTimeout, false},
		{"network matches", New("dns failure", CodeNetworkError), IsNetworkError, true},
		{"missing api key matches", New("API key is required", CodeMissingAPIKey), IsMissingAPIKey, true},
		{"decode matches", New("missing field", CodeDecodeError), IsDecodeError, true},
		{"rate limit by status", &Error{Code: "RATE_LIMIT", StatusCode: 429}, IsRateLimited, true},
		{"authentication by status", &Error{Code: "INVALID_KEY", StatusCode: 401}, IsAuthentication, true},
		{"server error by status", &Error{Code: CodeRequestFailed, StatusCode: 503}, IsServerError, true},
		{"client error is not server error", &Error{Code: CodeRequestFailed, StatusCode: 404}, IsServerError, false},
		{"transport error has no status", New("timed out", CodeTimeout), IsServerError, false},
		{"plain error matches nothing", fmt.Errorf("plain"), IsTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker(tt.err); got != tt.want {
				t.Errorf("checker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	if got := Code(New("x", CodeTimeout)); got != CodeTimeout {
		t.Errorf("Code() = %q, want %q", got, CodeTimeout)
	}
	if got := Code(fmt.Errorf("plain")); got != "" {
		t.Errorf("Code() = %q, want empty", got)
	}
}
