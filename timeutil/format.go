package timeutil

import "time"

// DefaultLocation is used when no report timezone is configured.
const DefaultLocation = "UTC"

const dateLayout = "Mon Jan 02 2006"

// Location resolves a timezone name, falling back to UTC when the name is
// empty or unknown to the host's tz database.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateString renders t as a calendar date, e.g. "Tue Feb 03 2026".
// A zero time renders as "Unknown".
func DateString(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "Unknown"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}
