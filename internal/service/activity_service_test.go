package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/models"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

type memoryActivityRepo struct {
	mu      sync.Mutex
	entries []models.SubmissionActivity
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.SubmissionActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) ListBySubmission(ctx context.Context, submissionID string, limit int) ([]models.SubmissionActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]models.SubmissionActivity, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.SubmissionID == submissionID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func TestActivityServiceRecordNormalisesEntry(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	err := svc.Record(context.Background(), ActivityEntry{
		SubmissionID: " sub-1 ",
		ActorID:      " t-1 ",
		ActorRole:    "Teacher",
		Action:       "Submission.Reviewed",
		Status:       "Approved",
		Points:       25,
		Metadata: map[string]interface{}{
			"user_id": "s-1",
			" ":       "dropped",
			"empty":   nil,
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.entries, 1)

	entry := repo.entries[0]
	require.Equal(t, "sub-1", entry.SubmissionID)
	require.Equal(t, "t-1", entry.ActorID)
	require.Equal(t, "teacher", entry.ActorRole)
	require.Equal(t, models.ActivitySubmissionReviewed, entry.Action)
	require.Equal(t, models.SubmissionStatusApproved, entry.Status)
	require.Equal(t, int64(25), entry.Points)
	require.Equal(t, "s-1", entry.Metadata["user_id"])
	require.Len(t, entry.Metadata, 1)
}

func TestActivityServiceRecordRequiresActionAndSubmission(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	require.Error(t, svc.Record(context.Background(), ActivityEntry{SubmissionID: "sub-1"}))
	require.Error(t, svc.Record(context.Background(), ActivityEntry{Action: models.ActivitySubmissionReviewed}))
}

func TestActivityServiceListForSubmissionIsReviewerOnly(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())
	ctx := context.Background()

	first := uuid.NewString()
	second := uuid.NewString()
	require.NoError(t, svc.Record(ctx, ActivityEntry{Action: models.ActivitySubmissionReviewed, SubmissionID: first}))
	require.NoError(t, svc.Record(ctx, ActivityEntry{Action: models.ActivitySubmissionReviewed, SubmissionID: second}))

	_, err := svc.ListForSubmission(ctx, auth.Principal{ID: "s-1", Role: auth.RoleStudent}, first, 10)
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	teacher := auth.Principal{ID: "t-1", Role: auth.RoleTeacher}
	_, err = svc.ListForSubmission(ctx, teacher, "not-a-uuid", 10)
	require.ErrorIs(t, err, appErrors.ErrInvalidID)

	entries, err := svc.ListForSubmission(ctx, teacher, first, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, first, entries[0].SubmissionID)
}
