package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// SubmissionActivityRepository persists the review trail of submissions.
type SubmissionActivityRepository interface {
	Create(ctx context.Context, entry *models.SubmissionActivity) error
	ListBySubmission(ctx context.Context, submissionID string, limit int) ([]models.SubmissionActivity, error)
}

type submissionActivityRepository struct {
	db *gorm.DB
}

// NewSubmissionActivityRepository constructs the activity repository.
func NewSubmissionActivityRepository(db *gorm.DB) SubmissionActivityRepository {
	return &submissionActivityRepository{db: db}
}

func (r *submissionActivityRepository) Create(ctx context.Context, entry *models.SubmissionActivity) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListBySubmission returns the newest entries first.
func (r *submissionActivityRepository) ListBySubmission(ctx context.Context, submissionID string, limit int) ([]models.SubmissionActivity, error) {
	entries := make([]models.SubmissionActivity, 0)
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
