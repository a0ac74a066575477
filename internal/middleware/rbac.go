package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/utils"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// RequireCapability rejects requests whose principal does not hold the capability.
func RequireCapability(capability auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.Require(PrincipalFromCtx(c), capability); err != nil {
			typed := appErrors.FromError(err)
			return utils.SendCodedError(c, typed.Status, typed.Code, typed.Message, nil)
		}
		return c.Next()
	}
}
