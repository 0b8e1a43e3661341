package trust

import (
	"testing"
	"time"
)

func TestResolveTierBands(t *testing.T) {
	cases := []struct {
		score int
		delay time.Duration
	}{
		{100, 10 * time.Minute},
		{85, 10 * time.Minute},
		{80, 10 * time.Minute},
		{79, 30 * time.Minute},
		{50, 30 * time.Minute},
		{49, 120 * time.Minute},
		{20, 120 * time.Minute},
		{19, 240 * time.Minute},
		{0, 240 * time.Minute},
	}
	for _, c := range cases {
		if got := ResolveTier(c.score).PendingDelay; got != c.delay {
			t.Errorf("score %d: expected delay %s, got %s", c.score, c.delay, got)
		}
	}
}

func TestResolveTierEveryScoreInDomain(t *testing.T) {
	for score := 0; score <= 100; score++ {
		tier := ResolveTier(score)
		var want time.Duration
		switch {
		case score >= 80:
			want = 10 * time.Minute
		case score >= 50:
			want = 30 * time.Minute
		case score >= 20:
			want = 120 * time.Minute
		default:
			want = 240 * time.Minute
		}
		if tier.PendingDelay != want {
			t.Fatalf("score %d: expected %s, got %s", score, want, tier.PendingDelay)
		}
	}
}

func TestResolveTierClampsOutOfRange(t *testing.T) {
	if got := ResolveTier(-5); got.PendingDelay != 240*time.Minute {
		t.Errorf("negative score should clamp to lowest tier, got %s", got.Name)
	}
	if got := ResolveTier(150); got.PendingDelay != 10*time.Minute {
		t.Errorf("score above 100 should clamp to highest tier, got %s", got.Name)
	}
}

func TestTimerMultiplierOrdering(t *testing.T) {
	// Higher trust must never mean a slower timer.
	prev := 0.0
	for _, score := range []int{90, 60, 30, 5} {
		m := ResolveTier(score).TimerMultiplier
		if m <= prev {
			t.Fatalf("multiplier must strictly increase as trust drops, got %v after %v", m, prev)
		}
		prev = m
	}
}

func TestClampScore(t *testing.T) {
	if ClampScore(-1) != 0 || ClampScore(101) != 100 || ClampScore(55) != 55 {
		t.Fatal("ClampScore must force values into [0,100]")
	}
}
