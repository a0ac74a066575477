package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/models"
)

func TestSubmissionActivityRepositoryListsPerSubmission(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionActivityRepository(db)
	ctx := context.Background()

	first := uuid.NewString()
	second := uuid.NewString()

	require.NoError(t, repo.Create(ctx, &models.SubmissionActivity{SubmissionID: first, ActorID: "t-1", ActorRole: "teacher", Action: models.ActivitySubmissionCreditFailed, Status: models.SubmissionStatusApproved, Points: 20}))
	require.NoError(t, repo.Create(ctx, &models.SubmissionActivity{SubmissionID: first, ActorID: "t-1", ActorRole: "teacher", Action: models.ActivitySubmissionReviewed, Status: models.SubmissionStatusApproved, Points: 20}))
	require.NoError(t, repo.Create(ctx, &models.SubmissionActivity{SubmissionID: second, ActorID: "t-2", ActorRole: "teacher", Action: models.ActivitySubmissionReviewed, Status: models.SubmissionStatusRejected}))

	entries, err := repo.ListBySubmission(ctx, first, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ActivitySubmissionReviewed, entries[0].Action)
	require.Equal(t, int64(20), entries[1].Points)

	entries, err = repo.ListBySubmission(ctx, first, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.ListBySubmission(ctx, uuid.NewString(), 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}
