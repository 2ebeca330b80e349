package schedule

import (
	"testing"
	"time"
)

func day() time.Time {
	return time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
}

func TestDefaultGridSkipsMiddayBreak(t *testing.T) {
	slots := DefaultSlotConfig().grid(day())

	want := []string{
		"08:00", "08:30", "09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
		"14:00", "14:30", "15:00", "15:30", "16:00", "16:30", "17:00", "17:30",
	}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, iv := range slots {
		if got := iv.Start.Format("15:04"); got != want[i] {
			t.Errorf("slot %d = %s, want %s", i, got, want[i])
		}
		if iv.Duration() != 30*time.Minute {
			t.Errorf("slot %d duration = %s, want 30m", i, iv.Duration())
		}
	}
}

func TestGridRespectsOverrides(t *testing.T) {
	cfg, err := NewSlotConfig("09:00", "12:00", 45*time.Minute, "", "")
	if err != nil {
		t.Fatalf("NewSlotConfig: %v", err)
	}

	slots := cfg.grid(day())
	want := []string{"09:00", "09:45", "10:30", "11:15"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, iv := range slots {
		if got := iv.Start.Format("15:04"); got != want[i] {
			t.Errorf("slot %d = %s, want %s", i, got, want[i])
		}
	}
}

func TestGridDropsSlotsStraddlingBreak(t *testing.T) {
	cfg, err := NewSlotConfig("11:00", "13:00", 45*time.Minute, "12:00", "12:30")
	if err != nil {
		t.Fatalf("NewSlotConfig: %v", err)
	}

	// 11:00-11:45 fits; 11:45-12:30 straddles the break; 12:30-13:15 exceeds day end.
	slots := cfg.grid(day())
	if len(slots) != 1 || slots[0].Start.Format("15:04") != "11:00" {
		t.Fatalf("expected only the 11:00 slot, got %v", slots)
	}
}

func TestNewSlotConfigRejectsBadInput(t *testing.T) {
	if _, err := NewSlotConfig("8am", "18:00", 30*time.Minute, "", ""); err == nil {
		t.Error("expected error for malformed day start")
	}
	if _, err := NewSlotConfig("08:00", "18:00", 0, "", ""); err == nil {
		t.Error("expected error for zero slot duration")
	}
	if _, err := NewSlotConfig("08:00", "18:00", 30*time.Minute, "noon", "14:00"); err == nil {
		t.Error("expected error for malformed break start")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("14:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	if tod.Hour != 14 || tod.Minute != 30 {
		t.Fatalf("expected 14:30, got %s", tod)
	}
	anchored := tod.At(day())
	if anchored.Hour() != 14 || anchored.Minute() != 30 || anchored.Day() != 10 {
		t.Fatalf("unexpected anchoring: %s", anchored)
	}
}
