package models

import "time"

// DefaultTrustScore is assigned on a user's first task activity.
const DefaultTrustScore = 50

// TrustScore is the per-user reliability ledger row. trust_score stays in
// [0,100]; counters only move up except through explicit moderation slashing.
type TrustScore struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	TrustScore           int        `gorm:"not null;default:50" json:"trust_score"`
	TotalTasksCompleted  int64      `gorm:"not null;default:0" json:"total_tasks_completed"`
	TotalTasksRejected   int64      `gorm:"not null;default:0" json:"total_tasks_rejected"`
	TotalCapsulesEarned  int64      `gorm:"not null;default:0" json:"total_capsules_earned"`
	TotalCapsulesSlashed int64      `gorm:"not null;default:0" json:"total_capsules_slashed"`
	LastTaskAt           *time.Time `json:"last_task_at,omitempty"`
	CooldownUntil        *time.Time `json:"cooldown_until,omitempty"`
	CreatedAt            time.Time  `json:"-"`
	UpdatedAt            time.Time  `json:"-"`
}

func (TrustScore) TableName() string {
	return "trust_scores"
}

// InCooldown reports whether the user is blocked from submitting at t.
func (ts *TrustScore) InCooldown(t time.Time) bool {
	return ts.CooldownUntil != nil && t.Before(*ts.CooldownUntil)
}
