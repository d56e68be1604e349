package models

import "time"

// CommandArchive is the durable mirror of a ledger entry written when it
// reaches a terminal state. The in-memory ledger stays authoritative.
type CommandArchive struct {
	ID          uint   `gorm:"primaryKey"`
	CommandID   string `gorm:"uniqueIndex;size:64;not null"`
	StableID    string `gorm:"index;size:191"`
	Command     string `gorm:"type:text"`
	Status      string `gorm:"size:32;index"`
	Result      string `gorm:"type:text"`
	ResultType  string `gorm:"size:16"`
	Files       string `gorm:"type:text"` // JSON attachment list
	SubmittedAt int64
	ScheduledAt int64
	FinishedAt  int64
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
