package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/models"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

func TestAccountRepositoryIncrementPoints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := models.Account{Name: "Minh", Email: "minh@example.com", Points: 5}
	require.NoError(t, repo.Create(ctx, &account))
	require.Equal(t, models.DefaultAvatarURL, account.Avatar)
	require.Equal(t, "student", account.Role)

	total, err := repo.IncrementPoints(ctx, account.ID, 25)
	require.NoError(t, err)
	require.Equal(t, int64(30), total)

	total, err = repo.IncrementPoints(ctx, account.ID, 0)
	require.NoError(t, err)
	require.Equal(t, int64(30), total)

	stored, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, int64(30), stored.Points)
}

func TestAccountRepositoryIncrementPointsRejectsUnknownAndNegative(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)

	_, err := repo.IncrementPoints(context.Background(), uuid.NewString(), 10)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = repo.IncrementPoints(context.Background(), uuid.NewString(), -1)
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = repo.GetByID(context.Background(), "42")
	require.ErrorIs(t, err, appErrors.ErrInvalidID)
}

func TestAccountRepositoryConcurrentIncrementsAreNotLost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := models.Account{Name: "Lan", Email: "lan@example.com"}
	require.NoError(t, repo.Create(ctx, &account))

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.IncrementPoints(ctx, account.ID, 10); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, int64(workers*10), stored.Points)
}
