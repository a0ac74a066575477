package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/learnhub-api/internal/auth"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

// PrincipalLocal is the fiber.Ctx locals key holding the authenticated auth.Principal.
const PrincipalLocal = "principal"

// JWTProtected returns a middleware that validates JWT bearer tokens and binds the principal
// to the request. Websocket upgrades may pass the token as the access_token query parameter.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		principal := principalFromClaims(claims)
		if !principal.Authenticated() {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}

		c.Locals(PrincipalLocal, principal)
		c.Locals("user_id", principal.ID)
		c.Locals("user_role", principal.Role)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), principal))

		return c.Next()
	}
}

// PrincipalFromCtx returns the principal bound by JWTProtected, or an anonymous principal.
func PrincipalFromCtx(c *fiber.Ctx) auth.Principal {
	if principal, ok := c.Locals(PrincipalLocal).(auth.Principal); ok {
		return principal
	}
	if principal, ok := auth.FromContext(c.UserContext()); ok {
		return principal
	}
	return auth.Principal{}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		if websocket.IsWebSocketUpgrade(c) {
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				return token, nil
			}
		}
		return "", fmt.Errorf("authorization header missing")
	}

	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
		return "", fmt.Errorf("invalid authorization header")
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return "", fmt.Errorf("invalid token")
	}
	return tokenString, nil
}

func principalFromClaims(claims jwt.MapClaims) auth.Principal {
	return auth.Principal{
		ID:    firstClaim(claims, "sub", "user_id", "id"),
		Name:  firstClaim(claims, "name"),
		Email: firstClaim(claims, "email"),
		Role:  extractUserRoleFromClaims(claims),
	}
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized := claimString(value); normalized != "" {
				return normalized
			}
		}
	}
	return ""
}

func claimString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	candidates := []string{"role", "roles"}
	for _, key := range candidates {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return auth.NormalizeRole(v)
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := auth.NormalizeRole(str); role != "" {
					return role
				}
			}
		}
	}
	return ""
}
