package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/middleware"
	"github.com/noah-isme/learnhub-api/internal/utils"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

func principalFromContext(c *fiber.Ctx) auth.Principal {
	return middleware.PrincipalFromCtx(c)
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

// respondError renders err with its typed status. data, when non-nil, is the resource the
// operation still produced.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, data interface{}) error {
	typed := appErrors.FromError(err)

	log := middleware.RequestLogger(c, logger)
	if typed.Status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("code", typed.Code).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", typed.Code).Msg("request rejected")
	}

	message := typed.Message
	if typed.Status == fiber.StatusInternalServerError {
		message = appErrors.ErrInternal.Message
	}

	var fieldErrors validator.ValidationErrors
	if data == nil && errors.As(err, &fieldErrors) {
		return utils.Fail(c, typed.Status, typed.Code, message, validationDetails(fieldErrors))
	}

	return utils.SendCodedError(c, typed.Status, typed.Code, message, data)
}

func validationDetails(fieldErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}
