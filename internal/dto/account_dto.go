package dto

import "github.com/noah-isme/learnhub-api/internal/models"

// AccountResponse exposes the profile fields relevant to scoring.
type AccountResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
	Points int64  `json:"points"`
}

// NewAccountResponse converts the model into a DTO.
func NewAccountResponse(model models.Account) AccountResponse {
	return AccountResponse{
		ID:     model.ID,
		Name:   model.Name,
		Email:  model.Email,
		Role:   model.Role,
		Avatar: model.Avatar,
		Points: model.Points,
	}
}
