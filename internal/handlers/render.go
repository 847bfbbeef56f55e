package handlers

import (
	"errors"
	"log"

	"glucolog/internal/middleware"
	"glucolog/internal/session"

	"github.com/gofiber/fiber/v2"
)

// renderer fills in the data every page needs: current user and pending flashes.
type renderer struct {
	sessions *session.Manager
}

func (r renderer) render(c *fiber.Ctx, view, title string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Title"] = title
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = r.sessions.PopFlashes(c)
	return c.Render(view, data)
}

// NewErrorHandler renders failures as an HTML error page.
func NewErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Something went wrong. Please try again."

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		}

		c.Status(code)
		if renderErr := c.Render("error", fiber.Map{
			"Title":   "Error",
			"Status":  code,
			"Message": message,
		}); renderErr != nil {
			log.Printf("Error rendering error page: %v", renderErr)
			return c.SendString(message)
		}
		return nil
	}
}
