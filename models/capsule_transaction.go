package models

import "time"

// CapsuleTransaction is an append-only audit row written alongside every
// ledger credit or slash.
type CapsuleTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	SubmissionID *uint     `gorm:"index" json:"submission_id,omitempty"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Flow         string    `gorm:"type:varchar(10);not null" json:"flow"` // credit | slash
	ReferenceID  string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"reference_id"`
	Message      *string   `gorm:"type:text" json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CapsuleTransaction) TableName() string {
	return "capsule_transactions"
}
