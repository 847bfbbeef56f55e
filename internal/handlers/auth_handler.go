package handlers

import (
	"errors"
	"log"

	"glucolog/internal/middleware"
	"glucolog/internal/services"
	"glucolog/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles the register, login and logout flows.
type AuthHandler struct {
	renderer
	authService *services.AuthService
	sessions    *session.Manager
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		renderer:    renderer{sessions: sessions},
		authService: authService,
		sessions:    sessions,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	guest := middleware.GuestOnly("/dashboard")
	router.Get("/register", guest, h.ShowRegister)
	router.Post("/register", guest, h.HandleRegister)
	router.Get("/login", guest, h.ShowLogin)
	router.Post("/login", guest, h.HandleLogin)
	router.Get("/logout", middleware.RequireAuth("/login"), h.HandleLogout)
}

// RegisterForm is the registration form body.
type RegisterForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
	Confirm  string `form:"confirm" validate:"eqfield=Password"`
}

// LoginForm is the login form body.
type LoginForm struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ShowRegister renders the registration form.
func (h *AuthHandler) ShowRegister(c *fiber.Ctx) error {
	return h.render(c, "register", "Register", nil)
}

// HandleRegister validates the form and creates the account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var form RegisterForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing register form: %v", err)
		h.sessions.Flash(c, "danger", "Email and password are required.")
		return c.Redirect("/register")
	}

	if message := registerValidationMessage(h.validate.Struct(form)); message != "" {
		h.sessions.Flash(c, "danger", message)
		return c.Redirect("/register")
	}

	if _, err := h.authService.Register(form.Email, form.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			h.sessions.Flash(c, "warning", "Email already registered. Please log in.")
			return c.Redirect("/login")
		}
		return err
	}

	h.sessions.Flash(c, "success", "Registration successful. Please log in.")
	return c.Redirect("/login")
}

// registerValidationMessage turns validator output into the single message
// shown to the user. Missing fields take precedence over a mismatch.
func registerValidationMessage(err error) string {
	if err == nil {
		return ""
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Email and password are required."
	}
	message := ""
	for _, e := range validationErrors {
		switch e.Field() {
		case "Email", "Password":
			return "Email and password are required."
		case "Confirm":
			message = "Passwords do not match."
		}
	}
	return message
}

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return h.render(c, "login", "Log in", nil)
}

// HandleLogin authenticates and establishes the session. Failures re-render
// the form with one generic message whatever the cause.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var form LoginForm
	if err := c.BodyParser(&form); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return h.loginFailed(c)
	}
	if err := h.validate.Struct(form); err != nil {
		return h.loginFailed(c)
	}

	user, err := h.authService.Authenticate(form.Email, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return h.loginFailed(c)
		}
		return err
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		return err
	}
	h.sessions.Flash(c, "success", "Logged in successfully.")
	return c.Redirect("/dashboard")
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx) error {
	h.sessions.Flash(c, "danger", "Invalid email or password.")
	return h.render(c, "login", "Log in", nil)
}

// HandleLogout destroys the session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c); err != nil {
		return err
	}
	h.sessions.Flash(c, "info", "Logged out.")
	return c.Redirect("/login")
}
