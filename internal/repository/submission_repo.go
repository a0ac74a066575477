package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

const (
	// DefaultSubmissionListLimit bounds list queries when the caller gives no limit.
	DefaultSubmissionListLimit = 100
	// MaxSubmissionListLimit caps the page size regardless of the requested limit.
	MaxSubmissionListLimit = 500
)

var (
	errSubmissionNotFound    = appErrors.Clone(appErrors.ErrNotFound, "submission not found")
	errSubmissionInvalidID   = appErrors.Clone(appErrors.ErrInvalidID, "invalid submission id")
	errSubmissionAlreadyDone = appErrors.Clone(appErrors.ErrAlreadyReviewed, "")
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	Status *string
	Type   *string
	UserID *string
	Limit  int
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id string) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id string, patch models.SubmissionReviewPatch) (models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// ParseSubmissionID validates the identifier format.
func ParseSubmissionID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", errSubmissionInvalidID
	}
	return parsed.String(), nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission == nil {
		return appErrors.Clone(appErrors.ErrValidation, "submission is required")
	}

	var missing []string
	if strings.TrimSpace(submission.UserID) == "" {
		missing = append(missing, "userId")
	}
	if strings.TrimSpace(submission.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(submission.Type) == "" {
		missing = append(missing, "type")
	}
	if len(missing) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "missing required fields: "+strings.Join(missing, ", "))
	}

	submission.Status = models.SubmissionStatusPending
	submission.PointsAwarded = 0
	submission.TeacherComment = ""
	submission.TeacherID = ""
	submission.TeacherName = ""
	submission.ReviewedAt = nil
	submission.UpdatedAt = submission.CreatedAt

	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (models.Submission, error) {
	parsed, err := ParseSubmissionID(id)
	if err != nil {
		return models.Submission{}, err
	}

	var submission models.Submission
	if err := r.db.WithContext(ctx).Where("id = ?", parsed).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, errSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.Status != nil && *filter.Status != "" {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Type != nil && *filter.Type != "" {
		query = query.Where("type = ?", *filter.Type)
	}

	if filter.UserID != nil && *filter.UserID != "" {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	submissions := make([]models.Submission, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Limit(clampLimit(filter.Limit)).Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// UpdateStatus writes the review patch only while the submission is still pending, so
// concurrent reviewers collapse into a single winner.
func (r *submissionRepository) UpdateStatus(ctx context.Context, id string, patch models.SubmissionReviewPatch) (models.Submission, error) {
	parsed, err := ParseSubmissionID(id)
	if err != nil {
		return models.Submission{}, err
	}

	reviewedAt := patch.ReviewedAt
	updates := map[string]interface{}{
		"status":          patch.Status,
		"teacher_comment": patch.TeacherComment,
		"points_awarded":  patch.PointsAwarded,
		"teacher_id":      patch.TeacherID,
		"teacher_name":    patch.TeacherName,
		"reviewed_at":     &reviewedAt,
		"updated_at":      patch.UpdatedAt,
	}

	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", parsed, models.SubmissionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return models.Submission{}, result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Submission{}).Where("id = ?", parsed).Count(&count).Error; err != nil {
			return models.Submission{}, err
		}
		if count == 0 {
			return models.Submission{}, errSubmissionNotFound
		}
		return models.Submission{}, errSubmissionAlreadyDone
	}

	return r.GetByID(ctx, parsed)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSubmissionListLimit
	}
	if limit > MaxSubmissionListLimit {
		return MaxSubmissionListLimit
	}
	return limit
}
