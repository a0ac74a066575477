package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// AccountHandler serves the caller's own account.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("component", "account_handler").Logger(),
	}
}

// Register binds the account routes.
func (h *AccountHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *AccountHandler) me(c *fiber.Ctx) error {
	account, err := h.service.Me(requestContext(c), principalFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "account retrieved", account)
}
