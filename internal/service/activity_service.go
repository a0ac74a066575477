package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// ActivityEntry describes one step in a submission's review trail.
type ActivityEntry struct {
	SubmissionID string
	ActorID      string
	ActorRole    string
	Action       string
	Status       string
	Points       int64
	Metadata     map[string]interface{}
}

// ActivityRecorder appends review trail entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) error
}

// ActivityService records and exposes the review trail of submissions.
type ActivityService interface {
	ActivityRecorder
	ListForSubmission(ctx context.Context, principal auth.Principal, submissionID string, limit int) ([]models.SubmissionActivity, error)
}

type activityService struct {
	repo   repository.SubmissionActivityRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo repository.SubmissionActivityRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("activity action is required")
	}
	if strings.TrimSpace(entry.SubmissionID) == "" {
		return errors.New("activity submission id is required")
	}

	model := models.SubmissionActivity{
		SubmissionID: strings.TrimSpace(entry.SubmissionID),
		ActorID:      strings.TrimSpace(entry.ActorID),
		ActorRole:    strings.ToLower(strings.TrimSpace(entry.ActorRole)),
		Action:       strings.ToLower(strings.TrimSpace(entry.Action)),
		Status:       strings.ToLower(strings.TrimSpace(entry.Status)),
		Points:       entry.Points,
		Metadata:     compactMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).
			Str("submission_id", model.SubmissionID).
			Str("action", model.Action).
			Msg("failed to persist submission activity")
		return err
	}

	return nil
}

// ListForSubmission returns the review trail of one submission; reviewers only.
func (s *activityService) ListForSubmission(ctx context.Context, principal auth.Principal, submissionID string, limit int) ([]models.SubmissionActivity, error) {
	if err := auth.Require(principal, auth.ListSubmissions); err != nil {
		return nil, err
	}

	id, err := repository.ParseSubmissionID(submissionID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListBySubmission(ctx, id, limit)
}

func compactMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	result := datatypes.JSONMap{}
	for key, value := range metadata {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || value == nil {
			continue
		}
		result[trimmed] = value
	}
	return result
}
