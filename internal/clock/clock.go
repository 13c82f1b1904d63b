package clock

import "time"

// Clock abstracts time.Now so services stay deterministic under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// LocalDay reduces an instant to the calendar day it falls on in loc,
// normalized to midnight UTC so equal days compare equal regardless of the
// zone they were derived in.
func LocalDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartOfLocalDay is the instant the calendar day began in loc, used as the
// lower bound of metric sample windows.
func StartOfLocalDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
