package models

import "time"

// Profile is the gamification state of a user. Level is derived from XP and
// is rewritten whenever a stale value is observed.
type Profile struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	DisplayName *string   `gorm:"type:varchar(120)" json:"displayName"`
	Email       string    `gorm:"type:varchar(255)" json:"email"`
	XP          int       `gorm:"not null" json:"xp"`
	Level       int       `gorm:"not null" json:"level"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Profile) TableName() string {
	return "profiles"
}
