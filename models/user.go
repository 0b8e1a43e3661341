package models

import "time"

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"`
	// Mirror of released capsule credits so the profile endpoint does not
	// need an aggregate query; the trust ledger stays authoritative.
	CapsuleBalance int64     `gorm:"not null;default:0" json:"capsule_balance"`
	Status         string    `gorm:"type:varchar(20);default:'Active'" json:"status"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}
