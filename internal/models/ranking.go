package models

import "time"

// RankingEntry is the leaderboard row of a single user. One row per user, most recent values win.
type RankingEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Points    int64     `gorm:"index;not null" json:"points"`
	Avatar    string    `gorm:"size:512" json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the table name used by the ranking projection.
func (RankingEntry) TableName() string {
	return "rankings"
}
