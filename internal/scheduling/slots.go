package scheduling

import (
	"time"
)

// OperatingTimezone is the company's operating timezone. Every slot
// comparison and every appointment timestamp construction goes through this
// single constant.
const OperatingTimezone = "America/Panama"

// SlotCatalog is the fixed ordered list of bookable daily slots. The midday
// gap is intentional. Availability is always computed against this catalog,
// never against technician working-hours data.
var SlotCatalog = []string{
	"08:00",
	"09:00",
	"10:00",
	"11:00",
	"13:00",
	"14:00",
	"15:00",
	"16:00",
	"17:00",
}

// IsCatalogSlot reports whether the given HH:MM string is one of the
// bookable slots.
func IsCatalogSlot(slot string) bool {
	for _, s := range SlotCatalog {
		if s == slot {
			return true
		}
	}
	return false
}

// Location resolves the operating timezone.
func Location() (*time.Location, error) {
	return time.LoadLocation(OperatingTimezone)
}

// SlotKey renders a stored timestamp into the operating timezone as an HH:MM
// string. Comparison against the catalog is exact: a timestamp that does not
// align to a slot boundary never registers as occupying a slot.
func SlotKey(ts time.Time, loc *time.Location) string {
	return ts.In(loc).Format("15:04")
}

// DayWindow returns the inclusive start and end of the calendar date in the
// operating timezone (00:00:00.000 through 23:59:59.999).
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end
}

// ParseDate parses a YYYY-MM-DD calendar date in the operating timezone.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", date, loc)
}

// SlotTimestamp combines a calendar date and an HH:MM slot into a concrete
// timestamp in the operating timezone.
func SlotTimestamp(date time.Time, slot string, loc *time.Location) (time.Time, error) {
	hm, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}
