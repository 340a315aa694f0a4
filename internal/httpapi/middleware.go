package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/cache"
)

const (
	localUser   = "user"
	localToken  = "token"
	localClaims = "claims"
)

func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.Get("X-Real-IP"); real != "" {
		return real
	}
	return c.IP()
}

// rateLimit throttles by client IP. Each tier keeps its own window through
// the key prefix so auth attempts and link creation are counted
// independently of general traffic.
func rateLimit(ca *cache.Cache, tier string, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res := ca.CheckRateLimit(c.UserContext(), tier+":"+clientIP(c), max, window)

		c.Set("X-RateLimit-Limit", strconv.Itoa(max))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many requests, please try again later",
			})
		}
		return c.Next()
	}
}

// requireAuth verifies the bearer token, rejects revoked tokens and loads
// the account into the request locals.
func requireAuth(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "No token provided")
		}
		token := strings.TrimPrefix(header, "Bearer ")

		if deps.Cache.IsBlacklisted(c.UserContext(), token) {
			return unauthorized(c, "Token has been revoked")
		}

		claims, err := deps.Auth.VerifyToken(token)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return unauthorized(c, "Invalid token")
		}
		user, err := deps.Store.FindUserByID(c.UserContext(), userID)
		if err != nil {
			return unauthorized(c, "User not found")
		}

		c.Locals(localUser, user)
		c.Locals(localToken, token)
		c.Locals(localClaims, claims)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *internal.User {
	user, _ := c.Locals(localUser).(*internal.User)
	return user
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "Unauthorized: " + msg,
	})
}
