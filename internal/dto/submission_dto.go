package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// SubmissionCreateRequest describes the multipart fields accompanying an upload.
type SubmissionCreateRequest struct {
	Type         string `form:"type" validate:"omitempty,max=64"`
	Note         string `form:"note" validate:"omitempty,max=2000"`
	RelatedTitle string `form:"relatedTitle" validate:"omitempty,max=255"`
	ChallengeID  string `form:"challengeId" validate:"omitempty,max=64"`
}

// SubmissionReviewRequest is the teacher decision on a submission.
// TeacherID and TeacherName are accepted for compatibility but the reviewer is
// always taken from the authenticated principal.
type SubmissionReviewRequest struct {
	Status         string     `json:"status"`
	TeacherComment string     `json:"teacherComment" validate:"max=2000"`
	PointsAwarded  *int64     `json:"pointsAwarded" validate:"omitempty,gte=0,lte=100000"`
	TeacherID      string     `json:"teacherId"`
	TeacherName    string     `json:"teacherName"`
	ReviewedAt     *time.Time `json:"reviewedAt"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	Status *string `query:"status" validate:"omitempty,oneof=pending approved rejected"`
	Type   *string `query:"type" validate:"omitempty,max=64"`
	Limit  int     `query:"limit" validate:"gte=0"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	UserName         string     `json:"userName"`
	UserEmail        string     `json:"userEmail"`
	Type             string     `json:"type"`
	URL              string     `json:"url"`
	OriginalFilename string     `json:"originalFilename"`
	Note             string     `json:"note,omitempty"`
	RelatedTitle     string     `json:"relatedTitle,omitempty"`
	ChallengeID      string     `json:"challengeId,omitempty"`
	Status           string     `json:"status"`
	TeacherComment   string     `json:"teacherComment,omitempty"`
	PointsAwarded    *int64     `json:"pointsAwarded,omitempty"`
	TeacherID        string     `json:"teacherId,omitempty"`
	TeacherName      string     `json:"teacherName,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
// PointsAwarded is only exposed once the submission is approved.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		UserID:           model.UserID,
		UserName:         model.UserName,
		UserEmail:        model.UserEmail,
		Type:             model.Type,
		URL:              model.URL,
		OriginalFilename: model.OriginalFilename,
		Note:             model.Note,
		RelatedTitle:     model.RelatedTitle,
		ChallengeID:      model.ChallengeID,
		Status:           model.Status,
		TeacherComment:   model.TeacherComment,
		TeacherID:        model.TeacherID,
		TeacherName:      model.TeacherName,
		ReviewedAt:       model.ReviewedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}

	if model.Status == models.SubmissionStatusApproved {
		points := model.PointsAwarded
		response.PointsAwarded = &points
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// ArtifactResponse describes a stored upload.
type ArtifactResponse struct {
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	SizeBytes        int64  `json:"sizeBytes"`
	Checksum         string `json:"checksum"`
}

// ReviewEvent is broadcast to the submitter after a review decision.
type ReviewEvent struct {
	SubmissionID   string    `json:"submissionId"`
	UserID         string    `json:"userId"`
	UserEmail      string    `json:"-"`
	UserName       string    `json:"-"`
	RelatedTitle   string    `json:"relatedTitle,omitempty"`
	Status         string    `json:"status"`
	PointsAwarded  int64     `json:"pointsAwarded"`
	TeacherComment string    `json:"teacherComment,omitempty"`
	TeacherName    string    `json:"teacherName"`
	NewTotal       *int64    `json:"newTotal,omitempty"`
	ReviewedAt     time.Time `json:"reviewedAt"`
}
