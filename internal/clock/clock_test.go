package clock

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{name: "morning", input: "09:00", want: TimeOfDay{Hour: 9, Minute: 0}},
		{name: "midnight", input: "00:00", want: TimeOfDay{Hour: 0, Minute: 0}},
		{name: "end of day", input: "23:59", want: TimeOfDay{Hour: 23, Minute: 59}},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "12:60", wantErr: true},
		{name: "missing separator", input: "1200", wantErr: true},
		{name: "too short", input: "9:00", wantErr: true},
		{name: "garbage", input: "ab:cd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimeOfDay(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNextOccurrence_TodayWhenNotYetPassed(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 30, 0, 0, time.Local)

	got, err := NextOccurrence("09:00", now)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}

	want := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestNextOccurrence_TomorrowWhenPassed(t *testing.T) {
	now := time.Date(2026, 3, 10, 21, 15, 0, 0, time.Local)

	got, err := NextOccurrence("09:00", now)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}

	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestNextOccurrence_ExactNowRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)

	got, err := NextOccurrence("09:00", now)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}

	if !got.After(now) {
		t.Errorf("NextOccurrence() = %v, want strictly after %v", got, now)
	}
	want := time.Date(2026, 3, 11, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence() = %v, want %v", got, want)
	}
}

func TestNextOccurrence_StrictlyFutureAcrossDay(t *testing.T) {
	// Sweep a day of reference instants against a set of dose times; the
	// result must always be strictly future and at most 24h away.
	times := []string{"00:00", "06:30", "12:00", "18:45", "23:59"}
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)

	for hour := 0; hour < 24; hour++ {
		now := base.Add(time.Duration(hour)*time.Hour + 17*time.Minute)
		for _, tod := range times {
			got, err := NextOccurrence(tod, now)
			if err != nil {
				t.Fatalf("NextOccurrence(%q) error = %v", tod, err)
			}
			if !got.After(now) {
				t.Errorf("NextOccurrence(%q, %v) = %v, not strictly future", tod, now, got)
			}
			if got.Sub(now) > 24*time.Hour {
				t.Errorf("NextOccurrence(%q, %v) = %v, more than 24h away", tod, now, got)
			}
		}
	}
}

func TestNextOccurrence_InvalidTime(t *testing.T) {
	if _, err := NextOccurrence("25:00", time.Now()); err == nil {
		t.Error("NextOccurrence(25:00) error = nil, want error")
	}
}

func TestDayKey(t *testing.T) {
	morning := time.Date(2026, 3, 10, 0, 1, 0, 0, time.Local)
	night := time.Date(2026, 3, 10, 23, 59, 0, 0, time.Local)

	if DayKey(morning) != DayKey(night) {
		t.Errorf("DayKey() differs within one day: %q vs %q", DayKey(morning), DayKey(night))
	}
	if got, want := DayKey(morning), "2026-03-10"; got != want {
		t.Errorf("DayKey() = %q, want %q", got, want)
	}
}

func TestWindowDays(t *testing.T) {
	today := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

	got := WindowDays(3, today)
	want := []string{"2026-03-08", "2026-03-09", "2026-03-10"}

	if len(got) != len(want) {
		t.Fatalf("WindowDays() returned %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("WindowDays()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWindowDays_MonthRollover(t *testing.T) {
	today := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)

	got := WindowDays(2, today)
	want := []string{"2026-02-28", "2026-03-01"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("WindowDays()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWindowDays_NonPositive(t *testing.T) {
	if got := WindowDays(0, time.Now()); got != nil {
		t.Errorf("WindowDays(0) = %v, want nil", got)
	}
}

func TestPrevDayKey(t *testing.T) {
	if got, want := PrevDayKey("2026-03-01"), "2026-02-28"; got != want {
		t.Errorf("PrevDayKey() = %q, want %q", got, want)
	}
	if got := PrevDayKey("not-a-day"); got != "" {
		t.Errorf("PrevDayKey(invalid) = %q, want empty", got)
	}
}
