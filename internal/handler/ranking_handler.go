package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// RankingHandler exposes the leaderboard.
type RankingHandler struct {
	service service.RankingService
	logger  zerolog.Logger
}

// NewRankingHandler constructs a ranking handler.
func NewRankingHandler(service service.RankingService, logger zerolog.Logger) *RankingHandler {
	return &RankingHandler{
		service: service,
		logger:  logger.With().Str("component", "ranking_handler").Logger(),
	}
}

// Register binds the ranking routes.
func (h *RankingHandler) Register(router fiber.Router) {
	router.Get("", h.top)
	router.Post("/update", middleware.RequireCapability(auth.ManageRankings), h.refresh)
}

func (h *RankingHandler) top(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendCodedError(c, fiber.StatusBadRequest, appErrors.ErrValidation.Code, "invalid limit", nil)
	}

	entries, err := h.service.Top(requestContext(c), limit)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "rankings retrieved", entries)
}

func (h *RankingHandler) refresh(c *fiber.Ctx) error {
	var payload dto.RankingRefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendCodedError(c, fiber.StatusBadRequest, appErrors.ErrValidation.Code, "invalid request body", nil)
	}

	entry, err := h.service.Refresh(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "ranking updated", entry)
}
