// Package analytics is the pure aggregation core: period filtering,
// category aggregation, trend/forecast computation, insight generation,
// and budget goal progress.
//
// Every function here operates on in-memory snapshots, takes "now" as an
// explicit argument, performs no I/O, and never mutates its inputs.
// Calling any function twice with identical inputs yields identical output.
package analytics

import (
	"time"

	"pennywise/internal/core"
)

// InPeriod reports whether recordDate falls in the period containing now.
//
//   - daily: same calendar day as now.
//   - weekly: within [weekStart, weekStart+6 days], both ends inclusive,
//     where weekStart is the Sunday of now's week.
//   - monthly: same calendar month and year as now.
//
// Time-of-day components are ignored; comparisons are calendar based in
// each value's own location.
func InPeriod(recordDate, now time.Time, period core.Period) bool {
	switch period {
	case core.Daily:
		ry, rm, rd := recordDate.Date()
		ny, nm, nd := now.Date()
		return ry == ny && rm == nm && rd == nd
	case core.Weekly:
		weekStart := core.DateOnly(now).AddDate(0, 0, -int(now.Weekday()))
		weekEnd := weekStart.AddDate(0, 0, 6)
		d := core.DateOnly(recordDate)
		return !d.Before(weekStart) && !d.After(weekEnd)
	case core.Monthly:
		return recordDate.Year() == now.Year() && recordDate.Month() == now.Month()
	default:
		return false
	}
}

// previousMonth returns an anchor date inside the calendar month before
// now's month.
func previousMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
}
