package handlers_test

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"glucolog/internal/config"
	"glucolog/internal/database"
	"glucolog/internal/models"
	"glucolog/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupApp sets up the full application over a private in-memory SQLite database.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	v.Set("SECRET_KEY", "test_secret")
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
	cfg := config.Load(v)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	require.NoError(t, err)
	require.NoError(t, database.InitSchema(db))
	t.Cleanup(func() { database.Close(db) })

	app := server.New(cfg, db, nil, server.Options{
		DisableRequestLog: true,
		HashCost:          bcrypt.MinCost,
	})
	return app, db
}

// client keeps cookies between requests the way a browser would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		if cookie.Value == "" || cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *client) get(path string) (*http.Response, string) {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// follow issues GETs along redirects and returns the final page.
func (c *client) follow(resp *http.Response, body string) (*http.Response, string) {
	c.t.Helper()
	for i := 0; i < 5 && resp.StatusCode == http.StatusFound; i++ {
		resp, body = c.get(resp.Header.Get("Location"))
	}
	return resp, body
}

func register(c *client, email, password, confirm string) (*http.Response, string) {
	return c.post("/register", url.Values{"email": {email}, "password": {password}, "confirm": {confirm}})
}

func login(c *client, email, password string) (*http.Response, string) {
	return c.post("/login", url.Values{"email": {email}, "password": {password}})
}

func countUsers(t *testing.T, db *gorm.DB, email string) int64 {
	var n int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", email).Count(&n).Error)
	return n
}

func countEntries(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Model(&models.GlucoseEntry{}).Count(&n).Error)
	return n
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestIndex_RedirectsToLoginWhenLoggedOut(t *testing.T) {
	app, _ := setupApp(t)
	c := newClient(t, app)

	resp, _ := c.get("/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	resp, body := c.follow(register(c, "test@example.com", "secret123", "secret123"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Registration successful. Please log in.")
	assert.Equal(t, int64(1), countUsers(t, db, "test@example.com"))

	var user models.User
	require.NoError(t, db.First(&user, "email = ?", "test@example.com").Error)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	resp, body = c.follow(login(c, "test@example.com", "secret123"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "Logged in successfully.")

	// Logged-in users are sent away from the guest pages.
	resp, _ = c.get("/login")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	resp, _ = c.get("/register")
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	resp, _ = c.get("/")
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestRegister_DuplicateEmailRedirectsToLogin(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	register(c, "dup@example.com", "pw", "pw")
	c.get("/login") // consume the success flash

	resp, _ := register(c, "dup@example.com", "other", "other")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countUsers(t, db, "dup@example.com"))

	_, body := c.follow(resp, "")
	assert.Contains(t, body, "Email already registered. Please log in.")

	// Case differences make a distinct account.
	register(c, "Dup@example.com", "pw", "pw")
	assert.Equal(t, int64(1), countUsers(t, db, "Dup@example.com"))
}

func TestRegister_ValidationFailures(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	tests := []struct {
		name            string
		email, pw, conf string
		message         string
	}{
		{"mismatch", "a@example.com", "secret", "other", "Passwords do not match."},
		{"missing confirm", "a@example.com", "secret", "", "Passwords do not match."},
		{"missing email", "", "secret", "secret", "Email and password are required."},
		{"missing password", "a@example.com", "", "", "Email and password are required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := register(c, tt.email, tt.pw, tt.conf)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/register", resp.Header.Get("Location"))

			_, body := c.follow(resp, "")
			assert.Contains(t, body, tt.message)
		})
	}

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLogin_WrongPasswordShowsGenericError(t *testing.T) {
	app, _ := setupApp(t)
	c := newClient(t, app)

	register(c, "user@example.com", "right", "right")
	c.get("/login")

	resp, body := login(c, "user@example.com", "wrong")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid email or password.")
	assert.NotContains(t, body, "Dashboard")

	// No session was established.
	resp, _ = c.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// An unknown email gets the very same message.
	_, unknownBody := login(c, "nobody@example.com", "right")
	assert.Contains(t, unknownBody, "Invalid email or password.")
}

func TestDashboard_RequiresAuth(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	resp, body := c.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.NotContains(t, body, "Recent entries")

	resp, _ = c.post("/dashboard", url.Values{"glucose_value": {"5.5"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Zero(t, countEntries(t, db))

	resp, _ = c.get("/logout")
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestDashboard_CreateEntry(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	register(c, "owner@example.com", "pw", "pw")
	c.follow(login(c, "owner@example.com", "pw"))

	// Non-numeric input saves nothing.
	resp, _ := c.post("/dashboard", url.Values{"glucose_value": {"high"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	_, body := c.follow(resp, "")
	assert.Contains(t, body, "Please enter a valid number for glucose value.")
	assert.Zero(t, countEntries(t, db))

	resp, _ = c.post("/dashboard", url.Values{
		"glucose_value": {"123.4"},
		"medication":    {"metformin"},
		"notes":         {"before breakfast"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, int64(1), countEntries(t, db))

	var owner models.User
	require.NoError(t, db.First(&owner, "email = ?", "owner@example.com").Error)
	var entry models.GlucoseEntry
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, owner.ID, entry.UserID)
	assert.Equal(t, 123.4, entry.GlucoseValue)

	_, body = c.follow(resp, "")
	assert.Contains(t, body, "Entry saved.")
	assert.Contains(t, body, "123.4")
	assert.Contains(t, body, "metformin")
	assert.Contains(t, body, "before breakfast")
}

func TestDashboard_ShowsOnlyOwnEntries(t *testing.T) {
	app, _ := setupApp(t)

	alice := newClient(t, app)
	register(alice, "alice@example.com", "pw", "pw")
	login(alice, "alice@example.com", "pw")
	alice.post("/dashboard", url.Values{"glucose_value": {"111.1"}, "notes": {"alice-note"}})

	bob := newClient(t, app)
	register(bob, "bob@example.com", "pw", "pw")
	login(bob, "bob@example.com", "pw")
	bob.post("/dashboard", url.Values{"glucose_value": {"222.2"}, "notes": {"bob-note"}})

	_, body := alice.get("/dashboard")
	assert.Contains(t, body, "alice-note")
	assert.NotContains(t, body, "bob-note")

	_, body = bob.get("/dashboard")
	assert.Contains(t, body, "bob-note")
	assert.NotContains(t, body, "alice-note")
}

func TestLogout(t *testing.T) {
	app, _ := setupApp(t)
	c := newClient(t, app)

	register(c, "out@example.com", "pw", "pw")
	c.follow(login(c, "out@example.com", "pw"))

	resp, _ := c.get("/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := c.follow(resp, "")
	assert.Contains(t, body, "Logged out.")

	resp, _ = c.get("/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHealthAndNotFound(t *testing.T) {
	app, db := setupApp(t)
	c := newClient(t, app)

	resp, body := c.get("/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
	assert.Contains(t, body, `"database":"ok"`)

	resp, body = c.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found.")

	require.NoError(t, database.Close(db))
	resp, body = c.get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"database":"unavailable"`)
}
