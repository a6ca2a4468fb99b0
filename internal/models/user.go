package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	AccessToken  string `gorm:"not null"`
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GenerationRecord archives one successful generation of a workspace.
type GenerationRecord struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	Workspace   string              `gorm:"index;not null" json:"workspace"`
	Provider    string              `json:"provider"`
	Courses     []Course            `gorm:"type:text;serializer:json" json:"courses"`
	Preferences SchedulePreferences `gorm:"type:text;serializer:json" json:"preferences"`
	Sessions    []ClassSession      `gorm:"type:text;serializer:json" json:"sessions"`
	Summary     string              `gorm:"type:text" json:"summary"`
	CreatedAt   time.Time           `gorm:"index" json:"createdAt"`
}
