package middleware

import (
	"errors"
	"strings"

	"insightpro/internal/auth"
	"insightpro/internal/logging"
	"insightpro/internal/metrics"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber locals key holding the verified *auth.Claims.
const ClaimsKey = "claims"

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// A missing header is answered with 401, a token that does not verify with 403.
func AuthRequired(tokens *auth.TokenManager, logger log.Logger, m *metrics.Metrics) fiber.Handler {
	logger = logging.OrNop(logger)
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			m.TokenRejected("missing")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				reason = "expired"
			}
			m.TokenRejected(reason)
			level.Debug(logger).Log("msg", "token rejected", "reason", reason, "path", c.Path(), "err", err)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(ClaimsKey, claims)
		c.SetUserContext(auth.NewContextWithClaims(c.UserContext(), claims))

		return c.Next()
	}
}

// bearerToken accepts "Bearer <token>" with any casing of the scheme, or the
// bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	if strings.EqualFold(header, "Bearer") {
		return ""
	}
	return header
}
