package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission records a learner-uploaded artifact awaiting or having received teacher review.
type Submission struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string     `gorm:"type:varchar(36);index;not null" json:"userId"`
	UserName         string     `gorm:"size:255" json:"userName"`
	UserEmail        string     `gorm:"size:255" json:"userEmail"`
	Type             string     `gorm:"size:64;index;not null" json:"type"`
	URL              string     `gorm:"size:1024;not null" json:"url"`
	OriginalFilename string     `gorm:"size:512" json:"originalFilename"`
	Note             string     `gorm:"type:text" json:"note"`
	RelatedTitle     string     `gorm:"size:255" json:"relatedTitle"`
	ChallengeID      string     `gorm:"size:64;index" json:"challengeId"`
	Status           string     `gorm:"size:16;index;not null" json:"status"`
	TeacherComment   string     `gorm:"type:text" json:"teacherComment"`
	PointsAwarded    int64      `gorm:"not null;default:0" json:"pointsAwarded"`
	TeacherID        string     `gorm:"type:varchar(36)" json:"teacherId"`
	TeacherName      string     `gorm:"size:255" json:"teacherName"`
	ReviewedAt       *time.Time `json:"reviewedAt"`
	CreatedAt        time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

const (
	// SubmissionStatusPending marks a submission waiting for review.
	SubmissionStatusPending = "pending"
	// SubmissionStatusApproved marks an accepted submission.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected marks a refused submission; a teacher comment is always present.
	SubmissionStatusRejected = "rejected"

	// DefaultSubmissionType is applied when the uploader does not categorise the submission.
	DefaultSubmissionType = "submission"
)

// BeforeCreate assigns a UUID when the caller did not provide one.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(s.ID) == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the submission has already been decided.
func (s Submission) IsTerminal() bool {
	return IsTerminalStatus(s.Status)
}

// IsTerminalStatus reports whether status is approved or rejected.
func IsTerminalStatus(status string) bool {
	return status == SubmissionStatusApproved || status == SubmissionStatusRejected
}

// SubmissionReviewPatch is the full set of columns written by a single review.
type SubmissionReviewPatch struct {
	Status         string
	TeacherComment string
	PointsAwarded  int64
	TeacherID      string
	TeacherName    string
	ReviewedAt     time.Time
	UpdatedAt      time.Time
}
