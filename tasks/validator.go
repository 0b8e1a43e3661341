package tasks

import (
	"strings"

	"github.com/duwit-online/engageloop-sub001/trust"
)

// SubmissionInput is the live form state checked before a submission row may
// be created.
type SubmissionInput struct {
	TaskType         TaskType
	Platform         string
	PlatformUsername string
	ContentAnswer    string
	CommentText      string
	HasScreenshot    bool
	TimerSeconds     int // observed dwell time
	Confirmed        bool
}

// ValidateSubmission runs every eligibility check and returns a
// *ValidationError for the first one that fails. All checks are conjunctive;
// there is no partial acceptance.
func ValidateSubmission(in SubmissionInput, tier trust.Tier) error {
	rule, ok := RuleFor(in.TaskType)
	if !ok {
		return &ValidationError{Field: "task_type", Reason: "unknown task type"}
	}

	if required := rule.RequiredDwell(tier); in.TimerSeconds < required {
		return &ValidationError{Field: "timer_seconds", Reason: "required dwell time not reached"}
	}

	// Evidence screenshot is mandatory for every task type, no exceptions.
	if !in.HasScreenshot {
		return &ValidationError{Field: "screenshot", Reason: "evidence screenshot is required"}
	}

	if len(strings.TrimSpace(in.ContentAnswer)) < 3 {
		return &ValidationError{Field: "content_answer", Reason: "answer must be at least 3 characters"}
	}

	// Visiting a website has no verifiable username; every other platform
	// needs one.
	if in.Platform != PlatformWebsite && len(strings.TrimSpace(in.PlatformUsername)) < 2 {
		return &ValidationError{Field: "platform_username", Reason: "username must be at least 2 characters"}
	}

	if rule.RequiresComment && len(strings.TrimSpace(in.CommentText)) < 5 {
		return &ValidationError{Field: "comment_text", Reason: "comment must be at least 5 characters"}
	}

	if !in.Confirmed {
		return &ValidationError{Field: "confirmed", Reason: "human confirmation checkbox must be set"}
	}

	return nil
}

// CanComplete is the boolean gate the client polls while the user works
// through a task.
func CanComplete(in SubmissionInput, tier trust.Tier) bool {
	return ValidateSubmission(in, tier) == nil
}
