package handlers

import (
	"errors"

	"glucolog/internal/middleware"
	"glucolog/internal/services"
	"glucolog/internal/session"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles the entry list and the entry form.
type DashboardHandler struct {
	renderer
	entryService *services.EntryService
	sessions     *session.Manager
	limit        int
}

// NewDashboardHandler creates a new DashboardHandler showing up to limit entries.
func NewDashboardHandler(entryService *services.EntryService, sessions *session.Manager, limit int) *DashboardHandler {
	if limit <= 0 {
		limit = services.DefaultRecentLimit
	}
	return &DashboardHandler{
		renderer:     renderer{sessions: sessions},
		entryService: entryService,
		sessions:     sessions,
		limit:        limit,
	}
}

// RegisterRoutes registers the index and dashboard routes.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)

	dashboard := router.Group("/dashboard", middleware.RequireAuth("/login"))
	dashboard.Get("/", h.ShowDashboard)
	dashboard.Post("/", h.HandleCreateEntry)
}

// HandleIndex sends users to the dashboard and everyone else to the login page.
func (h *DashboardHandler) HandleIndex(c *fiber.Ctx) error {
	if middleware.CurrentUser(c) != nil {
		return c.Redirect("/dashboard")
	}
	return c.Redirect("/login")
}

// ShowDashboard lists the current user's most recent entries.
func (h *DashboardHandler) ShowDashboard(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	entries, err := h.entryService.ListRecent(user.ID, h.limit)
	if err != nil {
		return err
	}
	return h.render(c, "dashboard", "Dashboard", fiber.Map{
		"Entries": entries,
	})
}

// EntryForm is the dashboard form body.
type EntryForm struct {
	GlucoseValue string `form:"glucose_value"`
	Medication   string `form:"medication"`
	Notes        string `form:"notes"`
}

// HandleCreateEntry stores a reading and redirects back to the dashboard.
func (h *DashboardHandler) HandleCreateEntry(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var form EntryForm
	if err := c.BodyParser(&form); err != nil {
		h.sessions.Flash(c, "danger", "Please enter a valid number for glucose value.")
		return c.Redirect("/dashboard")
	}

	if _, err := h.entryService.CreateEntry(user.ID, form.GlucoseValue, form.Medication, form.Notes); err != nil {
		if errors.Is(err, services.ErrInvalidGlucoseValue) {
			h.sessions.Flash(c, "danger", "Please enter a valid number for glucose value.")
			return c.Redirect("/dashboard")
		}
		return err
	}

	h.sessions.Flash(c, "success", "Entry saved.")
	return c.Redirect("/dashboard")
}
