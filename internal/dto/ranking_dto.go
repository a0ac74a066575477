package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// RankingRefreshRequest upserts a leaderboard entry.
type RankingRefreshRequest struct {
	UserID string `json:"userId" validate:"required,max=36"`
	Name   string `json:"name" validate:"required,max=255"`
	Points int64  `json:"points" validate:"gte=0"`
	Avatar string `json:"avatar" validate:"omitempty,max=512"`
}

// RankingEntryResponse is a leaderboard row.
type RankingEntryResponse struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Points    int64     `json:"points"`
	Avatar    string    `json:"avatar"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRankingEntryResponse converts the model into a DTO.
func NewRankingEntryResponse(model models.RankingEntry) RankingEntryResponse {
	return RankingEntryResponse{
		UserID:    model.UserID,
		Name:      model.Name,
		Points:    model.Points,
		Avatar:    model.Avatar,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewRankingEntryResponseSlice converts ranking models into DTOs.
func NewRankingEntryResponseSlice(entries []models.RankingEntry) []RankingEntryResponse {
	responses := make([]RankingEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewRankingEntryResponse(entry))
	}
	return responses
}
