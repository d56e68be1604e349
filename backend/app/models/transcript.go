package models

import "time"

// Transcript is the metadata row for one uploaded agent transcript; the
// content lives on disk next to it.
type Transcript struct {
	ID           uint   `gorm:"primaryKey"`
	TranscriptID string `gorm:"uniqueIndex;size:191;not null"`
	ClientID     string `gorm:"index;size:191"`
	Filename     string `gorm:"size:255"`
	Size         int64
	CreatedAt    time.Time
}
