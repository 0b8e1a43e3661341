package models

import "time"

// EngagementTask is an admin-defined task a user can complete on an external
// platform. Capsules is copied onto each submission at creation time so later
// edits to the task never change an in-flight reward.
type EngagementTask struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"type:varchar(150);not null" json:"title"`
	Platform        string    `gorm:"type:varchar(30);not null" json:"platform"`
	TaskType        string    `gorm:"type:varchar(20);not null" json:"task_type"`
	TargetURL       string    `gorm:"type:varchar(512);not null" json:"target_url"`
	ContentQuestion string    `gorm:"type:varchar(255)" json:"content_question"`
	Capsules        int64     `gorm:"not null" json:"capsules"`
	Status          string    `gorm:"type:varchar(20);default:'Active'" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (EngagementTask) TableName() string {
	return "engagement_tasks"
}
