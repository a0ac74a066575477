package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/observability"
	"github.com/noah-isme/learnhub-api/internal/repository"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// SubmissionService orchestrates the submission review workflow.
type SubmissionService interface {
	Submit(ctx context.Context, principal auth.Principal, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, principal auth.Principal, id string) (dto.SubmissionResponse, error)
	ListForReviewer(ctx context.Context, principal auth.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	ListMine(ctx context.Context, principal auth.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Review(ctx context.Context, principal auth.Principal, id string, decision dto.SubmissionReviewRequest) (dto.SubmissionResponse, error)
}

// SubmissionDependencies groups collaborators of the submission service. Rankings, Activity
// and Events are optional.
type SubmissionDependencies struct {
	Submissions repository.SubmissionRepository
	Accounts    repository.AccountRepository
	Artifacts   ArtifactService
	Rankings    RankingRefresher
	Activity    ActivityRecorder
	Events      ReviewEventPublisher
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

type submissionService struct {
	submissions repository.SubmissionRepository
	accounts    repository.AccountRepository
	artifacts   ArtifactService
	rankings    RankingRefresher
	activity    ActivityRecorder
	events      ReviewEventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies) SubmissionService {
	validate := deps.Validator
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &submissionService{
		submissions: deps.Submissions,
		accounts:    deps.Accounts,
		artifacts:   deps.Artifacts,
		rankings:    deps.Rankings,
		activity:    deps.Activity,
		events:      deps.Events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      deps.Logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/learnhub-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, principal auth.Principal, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()

	if err := auth.Require(principal, auth.SubmitWork); err != nil {
		span.SetStatus(codes.Error, "unauthorized")
		return dto.SubmissionResponse{}, err
	}
	span.SetAttributes(attribute.String("submission.user_id", principal.ID))

	if file == nil {
		span.SetStatus(codes.Error, "missing_artifact")
		return dto.SubmissionResponse{}, appErrors.ErrMissingArtifact
	}

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, validationError(err)
	}

	artifact, err := s.artifacts.Store(ctx, file)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "artifact_store_failed")
		return dto.SubmissionResponse{}, err
	}

	submissionType := sanitizeText(s.sanitizer, payload.Type)
	if submissionType == "" {
		submissionType = models.DefaultSubmissionType
	}

	now := s.now()
	submission := models.Submission{
		UserID:           principal.ID,
		UserName:         principal.Name,
		UserEmail:        principal.Email,
		Type:             submissionType,
		URL:              artifact.URL,
		OriginalFilename: artifact.OriginalFilename,
		Note:             sanitizeText(s.sanitizer, payload.Note),
		RelatedTitle:     sanitizeText(s.sanitizer, payload.RelatedTitle),
		ChallengeID:      sanitizeText(s.sanitizer, payload.ChallengeID),
		CreatedAt:        now,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_create_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsCreated().WithLabelValues(submission.Type).Inc()
	span.SetAttributes(attribute.String("submission.id", submission.ID))
	s.logger.Info().
		Str("submission_id", submission.ID).
		Str("user_id", submission.UserID).
		Str("type", submission.Type).
		Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, principal auth.Principal, id string) (dto.SubmissionResponse, error) {
	if err := auth.Require(principal, auth.AnyPrincipal); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := auth.Require(principal, auth.OwnerOrCapability(submission.UserID, auth.ReviewSubmissions)); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListForReviewer(ctx context.Context, principal auth.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := auth.Require(principal, auth.ListSubmissions); err != nil {
		return nil, err
	}

	return s.list(ctx, filter, nil)
}

func (s *submissionService) ListMine(ctx context.Context, principal auth.Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := auth.Require(principal, auth.AnyPrincipal); err != nil {
		return nil, err
	}

	owner := principal.ID
	return s.list(ctx, filter, &owner)
}

func (s *submissionService) list(ctx context.Context, filter dto.SubmissionFilter, owner *string) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, validationError(err)
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		Status: filter.Status,
		Type:   filter.Type,
		UserID: owner,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// Review applies a teacher decision. The status write is conditional on the submission still
// being pending; points are credited only after that write succeeded. A failed credit leaves the
// submission approved and is reported as a ledger error carrying the updated submission.
func (s *submissionService) Review(ctx context.Context, principal auth.Principal, id string, decision dto.SubmissionReviewRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.review")
	span.SetAttributes(
		attribute.String("review.submission_id", id),
		attribute.String("review.actor_id", principal.ID),
	)
	defer span.End()

	if err := auth.Require(principal, auth.ReviewSubmissions); err != nil {
		span.SetStatus(codes.Error, "forbidden")
		return dto.SubmissionResponse{}, err
	}

	submissionID, err := repository.ParseSubmissionID(id)
	if err != nil {
		span.SetStatus(codes.Error, "invalid_id")
		return dto.SubmissionResponse{}, err
	}

	status := strings.ToLower(strings.TrimSpace(decision.Status))
	if status != models.SubmissionStatusApproved && status != models.SubmissionStatusRejected {
		span.SetStatus(codes.Error, "invalid_status")
		return dto.SubmissionResponse{}, appErrors.ErrInvalidStatus
	}

	if err := s.validator.Struct(decision); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, validationError(err)
	}

	comment := sanitizeText(s.sanitizer, decision.TeacherComment)
	if status == models.SubmissionStatusRejected && comment == "" {
		span.SetStatus(codes.Error, "missing_comment")
		return dto.SubmissionResponse{}, appErrors.ErrMissingComment
	}

	current, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}
	if current.IsTerminal() {
		span.SetStatus(codes.Error, "already_reviewed")
		return dto.SubmissionResponse{}, appErrors.Clone(appErrors.ErrAlreadyReviewed, "submission has already been "+current.Status)
	}

	now := s.now()
	reviewedAt := now
	if decision.ReviewedAt != nil && !decision.ReviewedAt.IsZero() {
		reviewedAt = *decision.ReviewedAt
	}

	patch := models.SubmissionReviewPatch{
		Status:         status,
		TeacherComment: comment,
		TeacherID:      principal.ID,
		TeacherName:    principal.Name,
		ReviewedAt:     reviewedAt,
		UpdatedAt:      now,
	}
	if status == models.SubmissionStatusApproved && decision.PointsAwarded != nil {
		patch.PointsAwarded = *decision.PointsAwarded
	}

	updated, err := s.submissions.UpdateStatus(ctx, submissionID, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionReviews().WithLabelValues(status).Inc()
	span.SetAttributes(
		attribute.String("review.status", status),
		attribute.Int64("review.points_awarded", patch.PointsAwarded),
	)
	s.logger.Info().
		Str("submission_id", updated.ID).
		Str("teacher_id", principal.ID).
		Str("status", status).
		Int64("points_awarded", patch.PointsAwarded).
		Msg("submission reviewed")

	response := dto.NewSubmissionResponse(updated)
	event := dto.ReviewEvent{
		SubmissionID:   updated.ID,
		UserID:         updated.UserID,
		UserEmail:      updated.UserEmail,
		UserName:       updated.UserName,
		RelatedTitle:   updated.RelatedTitle,
		Status:         updated.Status,
		PointsAwarded:  updated.PointsAwarded,
		TeacherComment: updated.TeacherComment,
		TeacherName:    updated.TeacherName,
		ReviewedAt:     reviewedAt,
	}

	if status == models.SubmissionStatusApproved && patch.PointsAwarded > 0 {
		total, err := s.accounts.IncrementPoints(ctx, updated.UserID, patch.PointsAwarded)
		if err != nil {
			observability.LedgerFailures().Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "ledger_credit_failed")
			s.logger.Error().
				Err(err).
				Str("submission_id", updated.ID).
				Str("user_id", updated.UserID).
				Int64("points_awarded", patch.PointsAwarded).
				Msg("submission approved but crediting points failed")
			s.recordActivity(ctx, principal, updated, models.ActivitySubmissionCreditFailed)
			ledgerErr := appErrors.Clone(appErrors.ErrLedger, fmt.Sprintf("submission %s approved but crediting %d points failed", updated.ID, patch.PointsAwarded))
			return response, appErrors.WithCause(ledgerErr, err)
		}

		observability.PointsCredited().Add(float64(patch.PointsAwarded))
		event.NewTotal = &total
		s.refreshRanking(ctx, updated.UserID)
	}

	s.recordActivity(ctx, principal, updated, models.ActivitySubmissionReviewed)
	s.publish(ctx, event)

	return response, nil
}

// refreshRanking projects the account's current total. The account is re-read after the credit and
// written with Advance, so concurrent approvals for one user cannot leave an older total behind.
func (s *submissionService) refreshRanking(ctx context.Context, userID string) {
	if s.rankings == nil {
		return
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("ranking refresh skipped: account lookup failed")
		return
	}

	if _, err := s.rankings.Advance(ctx, dto.RankingRefreshRequest{
		UserID: userID,
		Name:   account.Name,
		Points: account.Points,
		Avatar: account.Avatar,
	}); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to refresh ranking entry")
	}
}

func (s *submissionService) recordActivity(ctx context.Context, principal auth.Principal, submission models.Submission, action string) {
	if s.activity == nil {
		return
	}

	metadata := map[string]interface{}{"user_id": submission.UserID}
	if submission.ChallengeID != "" {
		metadata["challenge_id"] = submission.ChallengeID
	}

	if err := s.activity.Record(ctx, ActivityEntry{
		SubmissionID: submission.ID,
		ActorID:      principal.ID,
		ActorRole:    principal.Role,
		Action:       action,
		Status:       submission.Status,
		Points:       submission.PointsAwarded,
		Metadata:     metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", submission.ID).Msg("failed to record review activity")
	}
}

func (s *submissionService) publish(ctx context.Context, event dto.ReviewEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("submission_id", event.SubmissionID).Msg("failed to publish review event")
	}
}
