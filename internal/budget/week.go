package budget

import "time"

// WeekBounds returns the ISO week containing now: Monday 00:00:00.000
// through Sunday 23:59:59.999 in now's location. Go numbers Sunday as
// weekday 0, so a Sunday steps back six days to reach its Monday instead
// of forward one.
func WeekBounds(now time.Time) (start, end time.Time) {
	back := int(now.Weekday()) - 1
	if now.Weekday() == time.Sunday {
		back = 6
	}
	monday := now.AddDate(0, 0, -back)
	start = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
	sunday := start.AddDate(0, 0, 6)
	end = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 999_000_000, now.Location())
	return start, end
}
