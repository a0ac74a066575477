package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

// AccountService exposes profile and point totals to the owning user.
type AccountService interface {
	Me(ctx context.Context, principal auth.Principal) (dto.AccountResponse, error)
}

type accountService struct {
	repo   repository.AccountRepository
	logger zerolog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo repository.AccountRepository, logger zerolog.Logger) AccountService {
	return &accountService{
		repo:   repo,
		logger: logger.With().Str("component", "account_service").Logger(),
	}
}

func (s *accountService) Me(ctx context.Context, principal auth.Principal) (dto.AccountResponse, error) {
	if err := auth.Require(principal, auth.AnyPrincipal); err != nil {
		return dto.AccountResponse{}, err
	}

	account, err := s.repo.GetByID(ctx, principal.ID)
	if err != nil {
		return dto.AccountResponse{}, err
	}

	return dto.NewAccountResponse(account), nil
}
