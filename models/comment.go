package models

import "time"

// Comment is posted under an announcement, e.g. the results table of a closed day.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"body"` // markdown source
	HTML      string    `gorm:"type:text" json:"html"`
	CreatedAt time.Time `json:"created_at"`
}
