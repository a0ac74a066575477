package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission activity actions.
const (
	ActivitySubmissionReviewed     = "submission.reviewed"
	ActivitySubmissionCreditFailed = "submission.credit_failed"
)

// SubmissionActivity is one entry in the review trail of a submission.
type SubmissionActivity struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID string            `gorm:"type:varchar(36);index:idx_submission_activity,priority:1;not null" json:"submissionId"`
	ActorID      string            `gorm:"type:varchar(36);index;not null" json:"actorId"`
	ActorRole    string            `gorm:"size:32;not null" json:"actorRole"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	Status       string            `gorm:"size:16" json:"status"`
	Points       int64             `gorm:"not null;default:0" json:"points"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"index:idx_submission_activity,priority:2" json:"createdAt"`
}

// TableName pins the table name.
func (SubmissionActivity) TableName() string {
	return "submission_activities"
}
