// Package httpapi wires the Fiber application: redirect front end, link
// management API and auth endpoints.
package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/shortlyhq/shortly/internal/auth"
	"github.com/shortlyhq/shortly/internal/cache"
	"github.com/shortlyhq/shortly/internal/config"
	"github.com/shortlyhq/shortly/internal/logger"
	"github.com/shortlyhq/shortly/internal/resolver"
	"github.com/shortlyhq/shortly/internal/shortener"
	"github.com/shortlyhq/shortly/internal/store"
)

type Deps struct {
	Auth      *auth.Service
	Cache     *cache.Cache
	Store     *store.Store
	Links     *shortener.Service
	Resolver  *resolver.Resolver
	BaseURL   string
	RateLimit config.RateLimitConfig
}

func NewApp(deps Deps) *fiber.App {
	app := fiber.New()
	app.Use(logger.FiberMiddleware())
	app.Use(cors.New())
	app.Use(rateLimit(deps.Cache, "general", deps.RateLimit.GeneralMax, deps.RateLimit.GeneralWindow))

	app.Get("/health", handleHealth(deps))

	authLimit := rateLimit(deps.Cache, "auth", deps.RateLimit.AuthMax, deps.RateLimit.AuthWindow)
	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", authLimit, handleRegister(deps))
	authGroup.Post("/login", authLimit, handleLogin(deps))
	authGroup.Post("/logout", requireAuth(deps), handleLogout(deps))
	authGroup.Get("/me", requireAuth(deps), handleMe())

	urls := app.Group("/api/urls")
	urls.Post("/",
		rateLimit(deps.Cache, "create", deps.RateLimit.CreateMax, deps.RateLimit.CreateWindow),
		requireAuth(deps),
		handleCreateURL(deps))
	urls.Get("/", requireAuth(deps), handleListURLs(deps))
	urls.Get("/:code/redirect-info", handleRedirectInfo(deps))
	urls.Get("/:code/analytics", requireAuth(deps), handleAnalytics(deps))
	urls.Delete("/:code", requireAuth(deps), handleDeleteURL(deps))

	// Catch-all redirect route goes last.
	app.Get("/:code", handleRedirect(deps))

	return app
}
