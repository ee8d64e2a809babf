package reminder

import "time"

// QuietHours is a daily window, in local hours, during which no reminders
// are sent. The window may wrap midnight; Start == End disables it.
type QuietHours struct {
	Start int
	End   int
}

// Contains reports whether t falls inside the window.
func (q QuietHours) Contains(t time.Time) bool {
	h := t.Hour()
	switch {
	case q.Start == q.End:
		return false
	case q.Start < q.End:
		return h >= q.Start && h < q.End
	default:
		return h >= q.Start || h < q.End
	}
}
