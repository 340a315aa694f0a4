package httpapi

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/shortener"
)

const maxPageSize = 100

type createURLRequest struct {
	URL        string `json:"url"`
	CustomSlug string `json:"customSlug"`
	ExpiryDays int    `json:"expiryDays"`
}

func handleCreateURL(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createURLRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if req.URL == "" {
			return badRequest(c, "URL cannot be empty")
		}
		if req.ExpiryDays < 0 || req.ExpiryDays > 365 {
			return badRequest(c, "expiryDays must be between 1 and 365")
		}

		user := currentUser(c)
		url, err := deps.Links.Create(c.UserContext(), shortener.CreateInput{
			OriginalURL: req.URL,
			CustomSlug:  req.CustomSlug,
			ExpiryDays:  req.ExpiryDays,
			UserID:      user.ID,
		})
		if err != nil {
			switch {
			case errors.Is(err, internal.ErrUnsupportedScheme):
				return badRequest(c, "Invalid URL: only http:// and https:// protocols are allowed")
			case errors.Is(err, internal.ErrReservedSlug):
				return badRequest(c, "This slug is reserved and cannot be used")
			case errors.Is(err, internal.ErrInvalidSlug):
				return badRequest(c, "Invalid custom slug format. Use 3-50 alphanumeric characters and hyphens.")
			case errors.Is(err, internal.ErrConflict):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"success": false,
					"error":   "Custom slug is already in use",
				})
			case errors.Is(err, internal.ErrGenerationExhausted):
				// Retryable capacity issue, not a client error.
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"error":   "Could not generate a unique short code, please retry",
				})
			default:
				return serverError(c, err)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"shortCode":   url.ShortCode,
				"shortUrl":    shortURL(deps.BaseURL, url.ShortCode),
				"originalUrl": url.OriginalURL,
				"expiresAt":   url.ExpiresAt,
				"createdAt":   url.CreatedAt,
			},
		})
	}
}

func handleListURLs(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", 10)
		if limit < 1 {
			limit = 10
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		user := currentUser(c)
		urls, total, err := deps.Links.List(c.UserContext(), user.ID, page, limit)
		if err != nil {
			return serverError(c, err)
		}

		items := make([]fiber.Map, 0, len(urls))
		for _, u := range urls {
			items = append(items, fiber.Map{
				"shortCode":   u.ShortCode,
				"shortUrl":    shortURL(deps.BaseURL, u.ShortCode),
				"originalUrl": u.OriginalURL,
				"clickCount":  u.ClickCount,
				"isActive":    u.IsActive,
				"createdAt":   u.CreatedAt,
				"expiresAt":   u.ExpiresAt,
			})
		}

		totalPages := total / int64(limit)
		if total%int64(limit) != 0 {
			totalPages++
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"urls": items,
				"pagination": fiber.Map{
					"page":       page,
					"limit":      limit,
					"total":      total,
					"totalPages": totalPages,
				},
			},
		})
	}
}

func handleAnalytics(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		summary, err := deps.Links.Analytics(c.UserContext(), c.Params("code"), user.ID)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				return notFoundJSON(c, "URL not found")
			}
			return serverError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "data": summary})
	}
}

func handleDeleteURL(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		err := deps.Links.Delete(c.UserContext(), c.Params("code"), user.ID)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				return notFoundJSON(c, "URL not found")
			}
			return serverError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "URL deleted successfully"})
	}
}

func shortURL(baseURL, code string) string {
	return fmt.Sprintf("%s/%s", baseURL, code)
}

func notFoundJSON(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": msg})
}
