package pipeline

import (
	"testing"
	"time"
)

func TestDailyRolloverKey(t *testing.T) {
	jm, err := time.LoadLocation("America/Jamaica")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before rollover", time.Date(2026, 3, 10, 6, 14, 59, 0, jm), "2026-03-09"},
		{"at rollover", time.Date(2026, 3, 10, 6, 15, 0, 0, jm), "2026-03-10"},
		{"evening", time.Date(2026, 3, 10, 23, 59, 0, 0, jm), "2026-03-10"},
		{"year boundary", time.Date(2026, 1, 1, 0, 30, 0, 0, jm), "2025-12-31"},
		// 11:00 UTC is 06:00 in Jamaica (UTC-5), still before rollover.
		{"utc input", time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC), "2026-03-09"},
		{"utc input after", time.Date(2026, 3, 10, 11, 15, 0, 0, time.UTC), "2026-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyRolloverKey(tt.now, 6, 15, jm); got != tt.want {
				t.Errorf("DailyRolloverKey = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDailyRolloverKeyNilLocation(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := DailyRolloverKey(now, 0, 0, nil); got != "2026-03-01" {
		t.Errorf("got %s, want 2026-03-01", got)
	}
}
