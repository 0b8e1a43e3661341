package tasks

import (
	"testing"

	"github.com/duwit-online/engageloop-sub001/trust"
)

func TestOnlyCommentTasksRequireComment(t *testing.T) {
	for _, tt := range []TaskType{TaskLike, TaskFollow, TaskStream} {
		rule, ok := RuleFor(tt)
		if !ok {
			t.Fatalf("missing rule for %s", tt)
		}
		if rule.RequiresComment {
			t.Errorf("%s must not require a comment", tt)
		}
	}
	rule, _ := RuleFor(TaskComment)
	if !rule.RequiresComment {
		t.Error("comment tasks must require a comment")
	}
}

func TestUnknownTaskType(t *testing.T) {
	if _, ok := RuleFor(TaskType("share")); ok {
		t.Error("share is not a supported task type")
	}
	if KnownTaskType("share") {
		t.Error("KnownTaskType should reject share")
	}
}

func TestRequiredDwellScalesWithTier(t *testing.T) {
	rule, _ := RuleFor(TaskLike) // midpoint of 15..45 is 30s

	cases := []struct {
		score int
		want  int
	}{
		{90, 21}, // 30 * 0.7
		{60, 30}, // 30 * 1.0
		{30, 39}, // 30 * 1.3
		{5, 45},  // 30 * 1.5
	}
	for _, c := range cases {
		tier := trust.ResolveTier(c.score)
		if got := rule.RequiredDwell(tier); got != c.want {
			t.Errorf("score %d: expected dwell %ds, got %ds", c.score, c.want, got)
		}
	}
}

func TestTimerBoundsSane(t *testing.T) {
	for tt, rule := range validationRules {
		if rule.MinTimer <= 0 || rule.MaxTimer <= rule.MinTimer {
			t.Errorf("%s has invalid timer bounds %d..%d", tt, rule.MinTimer, rule.MaxTimer)
		}
	}
}
