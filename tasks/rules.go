package tasks

import (
	"math"

	"github.com/duwit-online/engageloop-sub001/trust"
)

// TaskType is the closed set of engagement task kinds. Validation rules hang
// off the type as data, not behavior.
type TaskType string

const (
	TaskLike    TaskType = "like"
	TaskComment TaskType = "comment"
	TaskFollow  TaskType = "follow"
	TaskStream  TaskType = "stream"
)

// PlatformWebsite is the generic "visit a URL" platform; it has no verifiable
// username, so the username requirement and the external verifier are skipped.
const PlatformWebsite = "website"

// ValidationRule bounds the dwell timer for a task type and says whether a
// written comment is part of the proof.
type ValidationRule struct {
	MinTimer        int  `json:"min_timer"` // seconds
	MaxTimer        int  `json:"max_timer"` // seconds
	RequiresComment bool `json:"requires_comment"`
}

var validationRules = map[TaskType]ValidationRule{
	TaskLike:    {MinTimer: 15, MaxTimer: 45},
	TaskComment: {MinTimer: 30, MaxTimer: 90, RequiresComment: true},
	TaskFollow:  {MinTimer: 10, MaxTimer: 30},
	TaskStream:  {MinTimer: 60, MaxTimer: 300},
}

// RuleFor returns the static rule for a task type.
func RuleFor(t TaskType) (ValidationRule, bool) {
	r, ok := validationRules[t]
	return r, ok
}

// KnownTaskType reports whether t is one of the supported kinds.
func KnownTaskType(t TaskType) bool {
	_, ok := validationRules[t]
	return ok
}

// RequiredDwell is the observed time, in seconds, a user must spend on the
// task before submitting: the rounded midpoint of the timer bounds scaled by
// the tier's multiplier.
func (r ValidationRule) RequiredDwell(tier trust.Tier) int {
	mid := math.Round(float64(r.MinTimer+r.MaxTimer) / 2)
	return int(math.Round(mid * tier.TimerMultiplier))
}
