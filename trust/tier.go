package trust

import "time"

// Tier is the band of trust scores a user falls into. It decides how long a
// verified submission waits before payout and how strict the dwell timer is.
type Tier struct {
	Name            string        `json:"name"`
	MinScore        int           `json:"min_score"`
	PendingDelay    time.Duration `json:"-"`
	TimerMultiplier float64       `json:"timer_multiplier"`
}

// Bands are ordered highest-first; ResolveTier walks them top down.
var tiers = []Tier{
	{Name: "trusted", MinScore: 80, PendingDelay: 10 * time.Minute, TimerMultiplier: 0.7},
	{Name: "standard", MinScore: 50, PendingDelay: 30 * time.Minute, TimerMultiplier: 1.0},
	{Name: "probation", MinScore: 20, PendingDelay: 120 * time.Minute, TimerMultiplier: 1.3},
	{Name: "restricted", MinScore: 0, PendingDelay: 240 * time.Minute, TimerMultiplier: 1.5},
}

// ClampScore forces a score into [0,100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ResolveTier maps a trust score to its tier. Pure and total: out-of-range
// scores are clamped first. Callers deciding a submission's pending delay must
// resolve at verification time, not submission time, and keep that snapshot.
func ResolveTier(score int) Tier {
	score = ClampScore(score)
	for _, t := range tiers {
		if score >= t.MinScore {
			return t
		}
	}
	// Unreachable: the last band starts at 0.
	return tiers[len(tiers)-1]
}
