package pipeline

import "time"

// DailyRolloverKey returns the ISO date of the business day containing now.
// The day starts at hour:minute wall-clock time in loc; before that instant
// the previous calendar date is returned.
func DailyRolloverKey(now time.Time, hour, minute int, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	cutoff := time.Date(y, m, d, hour, minute, 0, 0, loc)
	if local.Before(cutoff) {
		return time.Date(y, m, d-1, 0, 0, 0, 0, loc).Format(time.DateOnly)
	}
	return local.Format(time.DateOnly)
}
