package conversation

import "time"

const (
	clockLayout = "3:04 PM"
	dateLayout  = "January 2, 2006 3:04 PM"
)

// HeaderLabel renders the text of a timestamp header relative to now, in
// now's location: "Today 3:04 PM", "Yesterday 3:04 PM", or a full date.
func HeaderLabel(ts, now time.Time) string {
	local := ts.In(now.Location())
	switch {
	case sameDay(local, now):
		return "Today " + local.Format(clockLayout)
	case sameDay(local, now.AddDate(0, 0, -1)):
		return "Yesterday " + local.Format(clockLayout)
	default:
		return local.Format(dateLayout)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
