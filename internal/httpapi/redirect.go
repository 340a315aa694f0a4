package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/resolver"
)

const notFoundPage = `<!DOCTYPE html>
<html>
  <head><title>Not Found</title></head>
  <body style="font-family: sans-serif; text-align: center; padding: 50px;">
    <h1>404 - Link Not Found</h1>
    <p>This short URL does not exist or has expired.</p>
    <a href="/">Go Home</a>
  </body>
</html>`

func visitFrom(c *fiber.Ctx) resolver.Visit {
	return resolver.Visit{
		IP:        clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referer:   c.Get(fiber.HeaderReferer),
	}
}

func handleRedirect(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := deps.Resolver.Resolve(c.UserContext(), c.Params("code"), visitFrom(c))
		switch {
		case errors.Is(err, internal.ErrNotFound):
			if strings.Contains(c.Get(fiber.HeaderAccept), "text/html") {
				c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
				return c.Status(fiber.StatusNotFound).SendString(notFoundPage)
			}
			return notFoundJSON(c, "Short URL not found or expired")
		case errors.Is(err, internal.ErrUnsupportedScheme):
			return c.Status(fiber.StatusBadRequest).SendString("Invalid destination URL protocol")
		case err != nil:
			return serverError(c, err)
		}
		return c.Redirect(url, fiber.StatusFound)
	}
}

// handleRedirectInfo is the non-redirecting variant used by clients doing
// their own navigation. The click is still recorded.
func handleRedirectInfo(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := deps.Resolver.Resolve(c.UserContext(), c.Params("code"), visitFrom(c))
		switch {
		case errors.Is(err, internal.ErrNotFound):
			return notFoundJSON(c, "Link not found or expired")
		case errors.Is(err, internal.ErrUnsupportedScheme):
			return badRequest(c, "Invalid destination URL protocol")
		case err != nil:
			return serverError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "originalUrl": url})
	}
}

func handleHealth(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		redisOK := deps.Cache.Ping(ctx) == nil
		dbOK := deps.Store.Ping(ctx) == nil

		status := fiber.StatusOK
		if !dbOK {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   map[bool]string{true: "ok", false: "degraded"}[dbOK && redisOK],
			"redis":    redisOK,
			"database": dbOK,
		})
	}
}
