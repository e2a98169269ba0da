package screening

import "testing"

func TestScreenResult_ShouldBlock(t *testing.T) {
	tests := []struct {
		name         string
		risk         string
		sanctionsHit bool
		want         bool
	}{
		{"low risk, no sanctions", RiskLow, false, false},
		{"medium risk, no sanctions", RiskMedium, false, false},
		{"high risk, no sanctions", RiskHigh, false, true},
		{"critical risk, no sanctions", RiskCritical, false, true},
		{"low risk, sanctions hit", RiskLow, true, true},
		{"medium risk, sanctions hit", RiskMedium, true, true},
		{"unknown risk, sanctions hit", "unknown", true, true},
		{"unknown risk, no sanctions", "unknown", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ScreenResult{
				Risk: tt.risk,
				Details: ScreenDetails{
					SanctionsHit: tt.sanctionsHit,
				},
			}
			if got := r.ShouldBlock(); got != tt.want {
				t.Errorf("ShouldBlock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidRisk(t *testing.T) {
	for _, level := range []string{RiskLow, RiskMedium, RiskHigh, RiskCritical} {
		if !ValidRisk(level) {
			t.Errorf("ValidRisk(%q) = false, want true", level)
		}
	}

	for _, level := range []string{"", "LOW", "severe", "critical "} {
		if ValidRisk(level) {
			t.Errorf("ValidRisk(%q) = true, want false", level)
		}
	}
}
