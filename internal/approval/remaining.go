package approval

import "time"

// Remaining is a presentation helper describing how long an approval
// stays actionable. Expired is true iff the remaining duration is zero
// or negative.
type Remaining struct {
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Expired bool `json:"expired"`
}

// TimeRemaining computes the time left until deadline as seen from now.
func TimeRemaining(deadline, now time.Time) Remaining {
	left := deadline.Sub(now)
	if left <= 0 {
		return Remaining{Expired: true}
	}
	return Remaining{
		Hours:   int(left.Hours()),
		Minutes: int(left.Minutes()) % 60,
	}
}
