// model.go: database records persisted by the director. These are plain
// gorm entities; the engine's in-memory types are mapped into them by the
// callers, which keeps the datastore free of engine dependencies.
package datastore

import (
	"time"
)

// SessionRecord is the durable form of a switching session.
type SessionRecord struct {
	ID          uint   `gorm:"primaryKey"`
	SessionID   string `gorm:"uniqueIndex"`
	InterviewID string `gorm:"index"`
	Mode        string
	Status      string
	Sensitivity string
	SwitchDelay float64
	CreatedAt   time.Time
	StoppedAt   *time.Time
}

// CameraRecord is one configured camera endpoint of a session.
type CameraRecord struct {
	ID                uint   `gorm:"primaryKey"`
	SessionID         string `gorm:"index"`
	CameraID          string
	DeviceID          string
	Name              string
	Position          string
	Priority          int
	AutoSwitchEnabled bool
}

// RuleRecord is one version of a switching rule. Updates append new
// versions instead of mutating earlier rows, so the rule history stays
// auditable.
type RuleRecord struct {
	ID              uint   `gorm:"primaryKey"`
	RuleID          string `gorm:"index"`
	Version         int64  `gorm:"index"`
	Priority        int
	Enabled         bool
	MinConfidence   float64
	CooldownSeconds float64
	ConditionKind   string
	ConditionParam  float64
	ActionKind      string
	ActionTarget    string
	CreatedAt       time.Time
}

// SwitchEventRecord is the durable form of a switch event.
type SwitchEventRecord struct {
	ID              uint      `gorm:"primaryKey"`
	EventID         string    `gorm:"uniqueIndex"`
	SessionID       string    `gorm:"index"`
	Timestamp       time.Time `gorm:"index"`
	TargetCamera    string
	SwitchType      string
	TriggerReason   string `gorm:"index"`
	ConfidenceScore float64
	AudioLevel      float64
	EngagementScore float64
	TransitionType  string
	Success         bool
	FailureReason   string
}
