package attendance

import (
	"testing"
	"time"
)

func TestTotalHours(t *testing.T) {
	in := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		out  time.Time
		want float64
	}{
		{time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC), 8.5},
		{time.Date(2025, 3, 10, 9, 20, 0, 0, time.UTC), 0.33},
		{in, 0},
	}
	for _, tt := range tests {
		if got := TotalHours(in, tt.out); got != tt.want {
			t.Fatalf("TotalHours(%v) = %v, want %v", tt.out, got, tt.want)
		}
	}
}

func TestClockState(t *testing.T) {
	in := time.Now()
	out := in.Add(time.Hour)
	tests := []struct {
		name string
		rec  *Record
		want string
	}{
		{"no record", nil, ClockNone},
		{"clocked in", &Record{ClockIn: &in}, ClockedIn},
		{"clocked out", &Record{ClockIn: &in, ClockOut: &out}, ClockCompleted},
		{"manual mark", &Record{Status: StatusPresent}, ClockCompleted},
	}
	for _, tt := range tests {
		if got := ClockState(tt.rec); got != tt.want {
			t.Fatalf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestRate(t *testing.T) {
	if got := Rate(3, 0); got != 0 {
		t.Fatalf("expected 0 with no working days, got %v", got)
	}
	if got := Rate(17, 21); got != 81 {
		t.Fatalf("expected 81, got %v", got)
	}
	if got := Rate(1, 3); got != 33.3 {
		t.Fatalf("expected 33.3, got %v", got)
	}
}

func TestMarkableStatus(t *testing.T) {
	for _, s := range []string{StatusPresent, StatusAbsent, StatusLate} {
		if !MarkableStatus(s) {
			t.Fatalf("%s should be markable", s)
		}
	}
	if MarkableStatus(StatusCompleted) || MarkableStatus("holiday") {
		t.Fatal("completed and unknown statuses are not markable")
	}
}
