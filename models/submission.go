package models

import "time"

// SubmissionStatus is the lifecycle state of a task submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionVerified SubmissionStatus = "verified"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionReleased SubmissionStatus = "released"
	SubmissionReversed SubmissionStatus = "reversed"
	SubmissionFlagged  SubmissionStatus = "flagged"
)

// Terminal reports whether the automated pipeline is done with this status.
// Moderation may still annotate terminal rows but must never re-credit them.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionReleased || s == SubmissionRejected || s == SubmissionReversed
}

// TaskSubmission is one user's claim of having completed an engagement task.
// capsules_earned is frozen at creation time; released_at is set iff the row
// reached released; the ledger is credited at most once per row.
type TaskSubmission struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	TaskID           uint    `gorm:"not null;index" json:"task_id"`
	UserID           *uint   `gorm:"index" json:"user_id"` // null for anonymous/legacy rows
	Platform         string  `gorm:"type:varchar(30);not null" json:"platform"`
	TaskType         string  `gorm:"type:varchar(20);not null" json:"task_type"`
	PlatformUsername string  `gorm:"type:varchar(100)" json:"platform_username"`
	ContentQuestion  string  `gorm:"type:varchar(255)" json:"content_question"`
	ContentAnswer    string  `gorm:"type:varchar(500)" json:"content_answer"`
	CommentText      *string `gorm:"type:varchar(500)" json:"comment_text,omitempty"`
	ScreenshotURL    string  `gorm:"type:varchar(512);not null" json:"screenshot_url"`
	TimerSeconds     int     `gorm:"not null;default:0" json:"timer_seconds"`
	CapsulesEarned   int64   `gorm:"not null" json:"capsules_earned"`
	// Opaque evidence blob from the external verifier, stored as-is.
	VerificationResult *string          `gorm:"type:text" json:"verification_result,omitempty"`
	Status             SubmissionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason    *string          `gorm:"type:varchar(500)" json:"rejection_reason,omitempty"`
	// Pending delay resolved from the owner's trust score at verification
	// time, fixed for the life of the row.
	PendingDelaySeconds int        `gorm:"not null;default:0" json:"pending_delay_seconds"`
	ReviewerID          *int64     `json:"reviewer_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"-"`
	VerifiedAt          *time.Time `json:"verified_at,omitempty"`
	ReleasedAt          *time.Time `json:"released_at,omitempty"`
	ReviewedAt          *time.Time `json:"reviewed_at,omitempty"`
}

func (TaskSubmission) TableName() string {
	return "task_submissions"
}
