package core

import "time"

// Window is a date range. Since is inclusive. Until is exclusive unless
// InclusiveEnd is set. A zero bound is unbounded on that side, so the zero
// Window covers all time.
type Window struct {
	Since        time.Time
	Until        time.Time
	InclusiveEnd bool
}

// AllTime is the unbounded window.
var AllTime = Window{}

func (w Window) IsZero() bool {
	return w.Since.IsZero() && w.Until.IsZero()
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Since.IsZero() && t.Before(w.Since) {
		return false
	}
	if w.Until.IsZero() {
		return true
	}
	if w.InclusiveEnd {
		return !t.After(w.Until)
	}
	return t.Before(w.Until)
}

// CalendarMonth is [first of month, first of next month) in UTC.
func CalendarMonth(m Month) Window {
	return Window{
		Since: m.Start(time.UTC),
		Until: m.Next().Start(time.UTC),
	}
}

// CurrentMonth is the month containing now, from local midnight of day 1
// up to (exclusive) day 1 of the following month, in now's location.
func CurrentMonth(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Since: start, Until: start.AddDate(0, 1, 0)}
}

// MonthToDate is the month containing now, from local midnight of day 1
// through midnight at the start of the last day, both ends inclusive.
// Expenses dated later on the last day fall outside it.
func MonthToDate(now time.Time) Window {
	loc := now.Location()
	return Window{
		Since:        time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc),
		Until:        time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, loc),
		InclusiveEnd: true,
	}
}
