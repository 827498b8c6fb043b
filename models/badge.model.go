package models

import "time"

// UserBadge is a badge grant. At most one row per (user, badge code).
type UserBadge struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badges_unique,priority:1" json:"userId"`
	BadgeCode  string    `gorm:"type:varchar(120);not null;uniqueIndex:idx_user_badges_unique,priority:2" json:"badgeCode"`
	UnlockedAt time.Time `gorm:"not null" json:"unlockedAt"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
