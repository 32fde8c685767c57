package middleware

import (
	"strings"

	"quiz-funnel/internal/auth"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	APIKeyHeader        = "apikey"
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	OwnerIDKey          = "ownerID" // Key for storing the owner namespace in fiber.Ctx locals
)

// RequireAPIKey resolves the apikey header to an owner namespace and, when a
// JWT secret is configured, requires a valid bearer token as well.
func RequireAPIKey(a *auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get(APIKeyHeader)
		if apiKey == "" {
			return domain.NewUnauthorizedError("apikey header is missing")
		}
		owner, err := a.ResolveOwner(apiKey)
		if err != nil {
			logger.Get().Debug("Rejected api key", zap.String("path", c.Path()))
			return domain.NewUnauthorizedError("Invalid API key")
		}

		if a.RequiresToken() {
			authHeader := c.Get(AuthorizationHeader)
			if authHeader == "" {
				return domain.NewUnauthorizedError("Authorization header is missing")
			}
			if !strings.HasPrefix(authHeader, BearerSchema) {
				return domain.NewUnauthorizedError("Authorization scheme is not Bearer")
			}
			tokenString := strings.TrimPrefix(authHeader, BearerSchema)
			if tokenString == "" {
				return domain.NewUnauthorizedError("Token is empty")
			}
			if _, err := a.ValidateJWT(tokenString); err != nil {
				return domain.NewUnauthorizedError(err.Error())
			}
		}

		c.Locals(OwnerIDKey, owner)
		return c.Next()
	}
}

// OwnerID returns the namespace resolved by RequireAPIKey.
func OwnerID(c *fiber.Ctx) string {
	owner, _ := c.Locals(OwnerIDKey).(string)
	return owner
}
