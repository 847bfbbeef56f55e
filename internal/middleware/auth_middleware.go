package middleware

import (
	"errors"
	"log"

	"glucolog/internal/models"
	"glucolog/internal/repositories"
	"glucolog/internal/services"
	"glucolog/internal/session"

	"github.com/gofiber/fiber/v2"
)

const currentUserKey = "current_user"

// LoadUser resolves the session's user and stores it in the request context.
// A session pointing at a user that no longer exists is treated as anonymous.
func LoadUser(sessions *session.Manager, authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := sessions.UserID(c)
		if !ok {
			return c.Next()
		}

		user, err := authService.GetUserByID(userID)
		if err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			log.Printf("Session refers to missing user %d", userID)
			return c.Next()
		}

		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

// RequireAuth redirects anonymous requests to loginPath.
func RequireAuth(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) == nil {
			return c.Redirect(loginPath)
		}
		return c.Next()
	}
}

// GuestOnly redirects authenticated requests to homePath.
func GuestOnly(homePath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Redirect(homePath)
		}
		return c.Next()
	}
}
