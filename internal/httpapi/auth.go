package httpapi

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shortlyhq/shortly/internal"
	"github.com/shortlyhq/shortly/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userPayload(user *internal.User) fiber.Map {
	return fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}

func handleRegister(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}

		req.Name = strings.TrimSpace(req.Name)
		if len(req.Name) < 2 || len(req.Name) > 50 {
			return badRequest(c, "Name must be between 2 and 50 characters")
		}
		if !strings.Contains(req.Email, "@") {
			return badRequest(c, "Invalid email address")
		}
		if len(req.Password) < 8 {
			return badRequest(c, "Password must be at least 8 characters")
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return serverError(c, err)
		}

		user := &internal.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
		if err := deps.Store.CreateUser(c.UserContext(), user); err != nil {
			if errors.Is(err, internal.ErrEmailTaken) {
				return badRequest(c, "Email already registered")
			}
			return serverError(c, err)
		}

		token, _, err := deps.Auth.IssueToken(user)
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"user": userPayload(user), "token": token},
		})
	}
}

func handleLogin(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}

		user, err := deps.Store.FindUserByEmail(c.UserContext(), req.Email)
		if err != nil {
			if errors.Is(err, internal.ErrNotFound) {
				return unauthorized(c, "Invalid email or password")
			}
			return serverError(c, err)
		}
		if !auth.CheckPassword(user.PasswordHash, req.Password) {
			return unauthorized(c, "Invalid email or password")
		}

		token, _, err := deps.Auth.IssueToken(user)
		if err != nil {
			return serverError(c, err)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"user": userPayload(user), "token": token},
		})
	}
}

// handleLogout revokes the presented token until its natural expiry.
func handleLogout(deps Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals(localToken).(string)
		claims, _ := c.Locals(localClaims).(*auth.Claims)
		if token != "" && claims != nil {
			if ttl := claims.RemainingTTL(time.Now()); ttl > 0 {
				deps.Cache.BlacklistToken(c.UserContext(), token, ttl)
			}
		}
		return c.JSON(fiber.Map{"success": true, "message": "Logged out"})
	}
}

func handleMe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"user": userPayload(user)}})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": msg})
}

func serverError(c *fiber.Ctx, err error) error {
	slog.Error("internal error", "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Internal server error",
	})
}
