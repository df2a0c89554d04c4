package entities

import (
	"strings"
	"time"
)

// DisplayTimeSlot rewrites the day portion of a server display string to
// "Today" or "Tomorrow" when the slot falls on those days in now's location.
// The trailing time portion of display is reused as is.
func DisplayTimeSlot(slot time.Time, display string, now time.Time) string {
	if slot.IsZero() || display == "" {
		return display
	}
	local := slot.In(now.Location())
	var day string
	switch {
	case sameDay(local, now):
		day = "Today"
	case sameDay(local, now.AddDate(0, 0, 1)):
		day = "Tomorrow"
	default:
		return display
	}
	return day + ", " + trailingTime(display)
}

// trailingTime returns the part after the last "," or " at " separator
func trailingTime(display string) string {
	cut := -1
	if i := strings.LastIndex(display, ","); i >= 0 {
		cut = i + 1
	}
	if i := strings.LastIndex(display, " at "); i >= 0 && i+4 > cut {
		cut = i + 4
	}
	if cut < 0 {
		return strings.TrimSpace(display)
	}
	return strings.TrimSpace(display[cut:])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
