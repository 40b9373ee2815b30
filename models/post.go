package models

import "time"

// Post is the announcement created when a challenge day opens. Ref is the public reference handed back to
// the challenge engine and stored against the day.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Ref       string    `gorm:"size:36;not null;uniqueIndex" json:"ref"`
	DayKey    string    `gorm:"size:10;not null;index" json:"date"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Comments  []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}
