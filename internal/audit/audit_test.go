package audit

import (
	"testing"
	"time"
)

func TestIsSecret(t *testing.T) {
	tests := []struct {
		key      string
		isSecret bool
	}{
		{"password", true},
		{"secret", true},
		{"signature", true},
		{"token", true},
		{"event_id", false},
		{"tenant_ref", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := isSecret(tt.key); got != tt.isSecret {
				t.Errorf("isSecret(%q) = %v, want %v", tt.key, got, tt.isSecret)
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{Actor: "user-1", Action: ActionSubscriptionTransition, Timestamp: base}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", Filter{}, true},
		{"actor match", Filter{Actor: "user-1"}, true},
		{"actor mismatch", Filter{Actor: "user-2"}, false},
		{"since before", Filter{Since: base.Add(-time.Hour)}, true},
		{"since after", Filter{Since: base.Add(time.Hour)}, false},
		{"until after", Filter{Until: base.Add(time.Hour)}, true},
		{"until before", Filter{Until: base.Add(-time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(entry); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
