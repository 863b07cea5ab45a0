package scheduling

import (
	"testing"
	"time"
)

func TestSlotCatalogValues(t *testing.T) {
	want := []string{"08:00", "09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	if len(SlotCatalog) != len(want) {
		t.Fatalf("catalog size %d, want %d", len(SlotCatalog), len(want))
	}
	for i, slot := range want {
		if SlotCatalog[i] != slot {
			t.Fatalf("catalog[%d] = %s, want %s", i, SlotCatalog[i], slot)
		}
	}
}

func TestIsCatalogSlot(t *testing.T) {
	if !IsCatalogSlot("13:00") {
		t.Fatal("13:00 is a catalog slot")
	}
	if IsCatalogSlot("12:00") {
		t.Fatal("12:00 falls in the midday gap")
	}
}

func TestSlotKeyRendersOperatingTimezone(t *testing.T) {
	loc, err := Location()
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 15:00 UTC is 10:00 in Panama (UTC-5, no DST).
	ts := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	if got := SlotKey(ts, loc); got != "10:00" {
		t.Fatalf("slot key %s, want 10:00", got)
	}
}

func TestDayWindowBounds(t *testing.T) {
	loc, err := Location()
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day, err := ParseDate("2025-06-10", loc)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	start, end := DayWindow(day, loc)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Fatalf("window start %s", start)
	}
	if end.Sub(start) != 24*time.Hour-time.Millisecond {
		t.Fatalf("window span %s", end.Sub(start))
	}
}

func TestSlotTimestampRejectsGarbage(t *testing.T) {
	loc, _ := Location()
	day, _ := ParseDate("2025-06-10", loc)
	if _, err := SlotTimestamp(day, "25:99", loc); err == nil {
		t.Fatal("expected parse error")
	}
}
