package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

const (
	// DefaultRankingLimit is the leaderboard size when none is requested.
	DefaultRankingLimit = 10
	// MaxRankingLimit caps leaderboard reads.
	MaxRankingLimit = 100

	rankingCacheKey = "rankings:top"
)

// RankingRefresher upserts a leaderboard entry with explicit values.
type RankingRefresher interface {
	Refresh(ctx context.Context, payload dto.RankingRefreshRequest) (dto.RankingEntryResponse, error)
	// Advance is Refresh for ledger-driven updates: stored points only move forward.
	Advance(ctx context.Context, payload dto.RankingRefreshRequest) (dto.RankingEntryResponse, error)
}

// RankingService is the read/write surface of the leaderboard projection.
type RankingService interface {
	RankingRefresher
	Top(ctx context.Context, limit int) ([]dto.RankingEntryResponse, error)
}

type rankingService struct {
	repo      repository.RankingRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRankingService builds the ranking projection service. cache may be nil.
func NewRankingService(repo repository.RankingRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) RankingService {
	return &rankingService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "ranking_service").Logger(),
	}
}

// Refresh overwrites name, points and avatar of the user's entry, creating it on first use.
func (s *rankingService) Refresh(ctx context.Context, payload dto.RankingRefreshRequest) (dto.RankingEntryResponse, error) {
	return s.store(ctx, payload, s.repo.Upsert)
}

func (s *rankingService) Advance(ctx context.Context, payload dto.RankingRefreshRequest) (dto.RankingEntryResponse, error) {
	return s.store(ctx, payload, s.repo.Advance)
}

func (s *rankingService) store(ctx context.Context, payload dto.RankingRefreshRequest, write func(context.Context, *models.RankingEntry) error) (dto.RankingEntryResponse, error) {
	payload.UserID = strings.TrimSpace(payload.UserID)
	payload.Name = strings.TrimSpace(payload.Name)
	if err := s.validator.Struct(payload); err != nil {
		return dto.RankingEntryResponse{}, validationError(err)
	}

	avatar := strings.TrimSpace(payload.Avatar)
	if avatar == "" {
		avatar = models.DefaultAvatarURL
	}

	entry := models.RankingEntry{
		UserID: payload.UserID,
		Name:   payload.Name,
		Points: payload.Points,
		Avatar: avatar,
	}
	if err := write(ctx, &entry); err != nil {
		return dto.RankingEntryResponse{}, err
	}

	s.invalidate(ctx)
	s.logger.Info().Str("user_id", entry.UserID).Int64("points", entry.Points).Msg("ranking entry refreshed")

	return dto.NewRankingEntryResponse(entry), nil
}

// Top returns the leaderboard, reading through the redis cache when configured.
func (s *rankingService) Top(ctx context.Context, limit int) ([]dto.RankingEntryResponse, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if limit > MaxRankingLimit {
		limit = MaxRankingLimit
	}
	field := strconv.Itoa(limit)

	if s.cache != nil {
		cached, err := s.cache.HGet(ctx, rankingCacheKey, field).Result()
		switch {
		case err == nil:
			var response []dto.RankingEntryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Int("limit", limit).Msg("ranking cache hit")
				return response, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("failed to read ranking cache")
		}
	}

	entries, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	response := dto.NewRankingEntryResponseSlice(entries)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			pipe := s.cache.TxPipeline()
			pipe.HSet(ctx, rankingCacheKey, field, payload)
			if s.cacheTTL > 0 {
				pipe.Expire(ctx, rankingCacheKey, s.cacheTTL)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store ranking cache")
			}
		}
	}

	return response, nil
}

func (s *rankingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, rankingCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate ranking cache")
	}
}
