package gamestat

import "time"

// Record holds the launch statistics of one game for one user.
type Record struct {
	Name        string
	FirstSeen   time.Time
	LastSeen    time.Time
	LaunchCount int
	ActiveDays  int
	Marked      bool
}

func NewRecord(name string, ts time.Time) *Record {
	return &Record{
		Name:        name,
		FirstSeen:   ts,
		LastSeen:    ts,
		LaunchCount: 1,
		ActiveDays:  1,
	}
}

// ConfirmLaunch counts a new launch at ts. Ordering against LastSeen is the
// caller's concern.
func (r *Record) ConfirmLaunch(ts time.Time) {
	if laterDay(ts, r.LastSeen) {
		r.ActiveDays++
	}

	r.LaunchCount++
	r.LastSeen = ts
}

func (r *Record) SetMarked(marked bool) {
	r.Marked = marked
}

// laterDay reports whether the calendar day of a is after the calendar day of b.
func laterDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
