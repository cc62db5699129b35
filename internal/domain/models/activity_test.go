// internal/domain/models/activity_test.go
package models

import (
	"testing"
	"time"
)

func TestValidityAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	window := 90 * 24 * time.Hour
	tests := []struct {
		end  string
		want Validity
	}{
		{"2027-01-01", ValidityActive},
		{"2025-08-31", ValidityActive},
		{"2025-08-30", ValidityExpiring},
		{"2025-06-01", ValidityExpiring},
		{"2025-05-31", ValidityExpired},
		{"", ValidityActive},
		{"01/06/2025", ValidityActive},
	}
	for _, tt := range tests {
		if got := ValidityAt(tt.end, now, window); got != tt.want {
			t.Errorf("ValidityAt(%q) = %s, want %s", tt.end, got, tt.want)
		}
	}
	if got := ValidityAt("2025-06-02", now, 0); got != ValidityActive {
		t.Errorf("zero window: got %s, want ACTIVE", got)
	}
}

func TestParseValidity(t *testing.T) {
	for in, want := range map[string]Validity{"active": ValidityActive, " Expiring ": ValidityExpiring, "EXPIRED": ValidityExpired} {
		got, err := ParseValidity(in)
		if err != nil || got != want {
			t.Errorf("ParseValidity(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseValidity("terminated"); err == nil {
		t.Error("expected an error for an unknown validity")
	}
}
