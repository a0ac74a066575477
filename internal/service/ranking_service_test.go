package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

type countingRankingRepo struct {
	repository.RankingRepository
	topCalls int
}

func (r *countingRankingRepo) Top(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	r.topCalls++
	return r.RankingRepository.Top(ctx, limit)
}

func newRankingFixture(t *testing.T) (RankingService, *countingRankingRepo, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRankingRepo{RankingRepository: repository.NewRankingRepository(setupServiceDB(t))}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewRankingService(repo, client, time.Minute, validate, testLogger()), repo, server
}

func TestRankingServiceTopUsesCache(t *testing.T) {
	svc, repo, server := newRankingFixture(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, dto.RankingRefreshRequest{UserID: "u-1", Name: "An", Points: 20})
	require.NoError(t, err)

	first, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.topCalls)
	require.True(t, server.Exists(rankingCacheKey))
	require.Greater(t, server.TTL(rankingCacheKey), time.Duration(0))

	second, err := svc.Top(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, first[0].UserID, second[0].UserID)
	require.Equal(t, 1, repo.topCalls)
}

func TestRankingServiceRefreshInvalidatesCache(t *testing.T) {
	svc, repo, server := newRankingFixture(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, dto.RankingRefreshRequest{UserID: "u-1", Name: "An", Points: 20})
	require.NoError(t, err)
	_, err = svc.Top(ctx, 0)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, dto.RankingRefreshRequest{UserID: "u-2", Name: "Binh", Points: 50})
	require.NoError(t, err)
	require.False(t, server.Exists(rankingCacheKey))

	top, err := svc.Top(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 2, repo.topCalls)
	require.Len(t, top, 2)
	require.Equal(t, "u-2", top[0].UserID)
	require.Equal(t, models.DefaultAvatarURL, top[1].Avatar)
}

func TestRankingServiceRefreshOverwritesEntry(t *testing.T) {
	svc, _, _ := newRankingFixture(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, dto.RankingRefreshRequest{UserID: "u-1", Name: "An", Points: 20, Avatar: "https://img.example.com/a.png"})
	require.NoError(t, err)

	updated, err := svc.Refresh(ctx, dto.RankingRefreshRequest{UserID: "u-1", Name: "An Nguyen", Points: 5})
	require.NoError(t, err)
	require.Equal(t, int64(5), updated.Points)
	require.Equal(t, "An Nguyen", updated.Name)

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, int64(5), top[0].Points)
}

func TestRankingServiceRefreshValidates(t *testing.T) {
	svc, _, _ := newRankingFixture(t)

	_, err := svc.Refresh(context.Background(), dto.RankingRefreshRequest{UserID: " ", Name: "An"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Refresh(context.Background(), dto.RankingRefreshRequest{UserID: "u-1", Name: "An", Points: -1})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestRankingServiceWithoutCache(t *testing.T) {
	repo := repository.NewRankingRepository(setupServiceDB(t))
	svc := NewRankingService(repo, nil, time.Minute, validator.New(), testLogger())

	_, err := svc.Refresh(context.Background(), dto.RankingRefreshRequest{UserID: "u-1", Name: "An", Points: 3})
	require.NoError(t, err)

	top, err := svc.Top(context.Background(), MaxRankingLimit+50)
	require.NoError(t, err)
	require.Len(t, top, 1)
}
