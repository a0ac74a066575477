package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/models"
)

func TestRankingRepositoryUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRankingRepository(db)
	ctx := context.Background()

	entry := models.RankingEntry{UserID: "u-1", Name: "An", Points: 10, Avatar: "a.png"}
	require.NoError(t, repo.Upsert(ctx, &entry))
	require.NotZero(t, entry.ID)

	updated := models.RankingEntry{UserID: "u-1", Name: "An Nguyen", Points: 35, Avatar: "b.png"}
	require.NoError(t, repo.Upsert(ctx, &updated))
	require.Equal(t, entry.ID, updated.ID)
	require.Equal(t, "An Nguyen", updated.Name)
	require.Equal(t, int64(35), updated.Points)
	require.Equal(t, "b.png", updated.Avatar)

	var count int64
	require.NoError(t, db.Model(&models.RankingEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRankingRepositoryAdvanceNeverLowersPoints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRankingRepository(db)
	ctx := context.Background()

	entry := models.RankingEntry{UserID: "u-1", Name: "An", Points: 50, Avatar: "a.png"}
	require.NoError(t, repo.Advance(ctx, &entry))
	require.Equal(t, int64(50), entry.Points)

	stale := models.RankingEntry{UserID: "u-1", Name: "An Nguyen", Points: 30, Avatar: "b.png"}
	require.NoError(t, repo.Advance(ctx, &stale))
	require.Equal(t, int64(50), stale.Points)
	require.Equal(t, "An Nguyen", stale.Name)
	require.Equal(t, "b.png", stale.Avatar)

	newer := models.RankingEntry{UserID: "u-1", Name: "An Nguyen", Points: 70, Avatar: "b.png"}
	require.NoError(t, repo.Advance(ctx, &newer))
	require.Equal(t, int64(70), newer.Points)

	manual := models.RankingEntry{UserID: "u-1", Name: "An Nguyen", Points: 5, Avatar: "b.png"}
	require.NoError(t, repo.Upsert(ctx, &manual))
	require.Equal(t, int64(5), manual.Points)
}

func TestRankingRepositoryTopOrdersByPointsThenStorage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRankingRepository(db)
	ctx := context.Background()

	for _, entry := range []models.RankingEntry{
		{UserID: "u-1", Name: "first tie", Points: 50},
		{UserID: "u-2", Name: "leader", Points: 90},
		{UserID: "u-3", Name: "second tie", Points: 50},
		{UserID: "u-4", Name: "last", Points: 5},
	} {
		e := entry
		require.NoError(t, repo.Upsert(ctx, &e))
	}

	top, err := repo.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	require.Equal(t, "leader", top[0].Name)
	require.Equal(t, "first tie", top[1].Name)
	require.Equal(t, "second tie", top[2].Name)
}
