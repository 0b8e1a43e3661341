package tasks

import (
	"errors"
	"testing"

	"github.com/duwit-online/engageloop-sub001/trust"
)

// validInput returns form state that passes every check for the given type at
// the standard tier.
func validInput(tt TaskType) SubmissionInput {
	return SubmissionInput{
		TaskType:         tt,
		Platform:         "instagram",
		PlatformUsername: "someone",
		ContentAnswer:    "the video was about cooking",
		CommentText:      "great video, loved the pacing",
		HasScreenshot:    true,
		TimerSeconds:     600,
		Confirmed:        true,
	}
}

func standardTier() trust.Tier {
	return trust.ResolveTier(50)
}

func TestValidInputPassesAllTypes(t *testing.T) {
	for _, tt := range []TaskType{TaskLike, TaskComment, TaskFollow, TaskStream} {
		if err := ValidateSubmission(validInput(tt), standardTier()); err != nil {
			t.Errorf("%s: expected valid, got %v", tt, err)
		}
		if !CanComplete(validInput(tt), standardTier()) {
			t.Errorf("%s: CanComplete should be true", tt)
		}
	}
}

func TestMissingScreenshotBlocksEveryType(t *testing.T) {
	for _, tt := range []TaskType{TaskLike, TaskComment, TaskFollow, TaskStream} {
		in := validInput(tt)
		in.HasScreenshot = false
		err := ValidateSubmission(in, standardTier())
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "screenshot" {
			t.Errorf("%s: expected screenshot validation error, got %v", tt, err)
		}
		if CanComplete(in, standardTier()) {
			t.Errorf("%s: CanComplete must be false without evidence", tt)
		}
	}
}

func TestDwellTimeGate(t *testing.T) {
	in := validInput(TaskLike)
	in.TimerSeconds = 10 // below the 30s standard-tier requirement
	err := ValidateSubmission(in, standardTier())
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "timer_seconds" {
		t.Fatalf("expected timer validation error, got %v", err)
	}

	in.TimerSeconds = 30
	if err := ValidateSubmission(in, standardTier()); err != nil {
		t.Fatalf("exactly the required dwell should pass, got %v", err)
	}
}

func TestShortContentAnswer(t *testing.T) {
	in := validInput(TaskFollow)
	in.ContentAnswer = "ok"
	var verr *ValidationError
	if err := ValidateSubmission(in, standardTier()); !errors.As(err, &verr) || verr.Field != "content_answer" {
		t.Fatalf("expected content_answer error, got %v", err)
	}
}

func TestWebsitePlatformSkipsUsername(t *testing.T) {
	in := validInput(TaskLike)
	in.Platform = PlatformWebsite
	in.PlatformUsername = ""
	if err := ValidateSubmission(in, standardTier()); err != nil {
		t.Fatalf("website tasks need no username, got %v", err)
	}

	in.Platform = "tiktok"
	var verr *ValidationError
	if err := ValidateSubmission(in, standardTier()); !errors.As(err, &verr) || verr.Field != "platform_username" {
		t.Fatalf("non-website platforms require a username, got %v", err)
	}
}

func TestCommentLengthOnlyWhereRequired(t *testing.T) {
	in := validInput(TaskComment)
	in.CommentText = "nice"
	var verr *ValidationError
	if err := ValidateSubmission(in, standardTier()); !errors.As(err, &verr) || verr.Field != "comment_text" {
		t.Fatalf("short comment must fail comment tasks, got %v", err)
	}

	like := validInput(TaskLike)
	like.CommentText = ""
	if err := ValidateSubmission(like, standardTier()); err != nil {
		t.Fatalf("like tasks never require a comment, got %v", err)
	}
}

func TestConfirmationRequired(t *testing.T) {
	in := validInput(TaskStream)
	in.Confirmed = false
	var verr *ValidationError
	if err := ValidateSubmission(in, standardTier()); !errors.As(err, &verr) || verr.Field != "confirmed" {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
