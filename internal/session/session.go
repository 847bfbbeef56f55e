// Package session tracks the logged-in user and one-time flash messages in a
// server-side session keyed by an encrypted cookie.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	localsKey  = "session_state"
	userIDKey  = "user_id"
	flashesKey = "flashes"
)

// Flash is a notice shown on the next rendered page, then discarded.
type Flash struct {
	Category string `json:"category"` // success, info, warning or danger
	Message  string `json:"message"`
}

// Config holds session cookie settings.
type Config struct {
	Expiration   time.Duration
	CookieSecure bool
	Storage      fiber.Storage // nil means in-process memory
}

// Manager establishes and destroys logged-in sessions.
type Manager struct {
	store *fibersession.Store
}

type state struct {
	sess  *fibersession.Session
	dirty bool
}

// NewManager creates a Manager backed by a Fiber session store.
func NewManager(cfg Config) *Manager {
	store := fibersession.New(fibersession.Config{
		Expiration:     cfg.Expiration,
		Storage:        cfg.Storage,
		KeyLookup:      "cookie:session_id",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})
	return &Manager{store: store}
}

// Handler loads the session for the request and persists it once the rest
// of the chain has run. Fresh sessions that were never written are dropped.
func (m *Manager) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := m.store.Get(c)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		st := &state{sess: sess}
		c.Locals(localsKey, st)

		chainErr := c.Next()

		if st.dirty || !sess.Fresh() {
			if err := sess.Save(); err != nil {
				log.Printf("Failed to save session: %v", err)
				if chainErr == nil {
					chainErr = err
				}
			}
		}
		return chainErr
	}
}

func (m *Manager) current(c *fiber.Ctx) (*state, error) {
	st, ok := c.Locals(localsKey).(*state)
	if !ok {
		return nil, fmt.Errorf("session middleware is not installed")
	}
	return st, nil
}

// Login binds userID to the session under a new session ID.
func (m *Manager) Login(c *fiber.Ctx, userID uint) error {
	st, err := m.current(c)
	if err != nil {
		return err
	}
	if err := st.sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	st.sess.Set(userIDKey, userID)
	st.dirty = true
	return nil
}

// Logout forgets the user and pending flashes and rotates the session ID.
func (m *Manager) Logout(c *fiber.Ctx) error {
	st, err := m.current(c)
	if err != nil {
		return err
	}
	st.sess.Delete(userIDKey)
	st.sess.Delete(flashesKey)
	if err := st.sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	st.dirty = true
	return nil
}

// UserID reports the user bound to the session, if any.
func (m *Manager) UserID(c *fiber.Ctx) (uint, bool) {
	st, err := m.current(c)
	if err != nil {
		return 0, false
	}
	id, ok := st.sess.Get(userIDKey).(uint)
	return id, ok && id != 0
}

// Flash queues a message for the next rendered page.
func (m *Manager) Flash(c *fiber.Ctx, category, message string) {
	st, err := m.current(c)
	if err != nil {
		log.Printf("Dropping flash %q: %v", message, err)
		return
	}
	flashes := decodeFlashes(st.sess.Get(flashesKey))
	flashes = append(flashes, Flash{Category: category, Message: message})
	raw, err := json.Marshal(flashes)
	if err != nil {
		log.Printf("Dropping flash %q: %v", message, err)
		return
	}
	st.sess.Set(flashesKey, string(raw))
	st.dirty = true
}

// PopFlashes returns the queued messages and clears them.
func (m *Manager) PopFlashes(c *fiber.Ctx) []Flash {
	st, err := m.current(c)
	if err != nil {
		return nil
	}
	flashes := decodeFlashes(st.sess.Get(flashesKey))
	if len(flashes) > 0 {
		st.sess.Delete(flashesKey)
		st.dirty = true
	}
	return flashes
}

func decodeFlashes(v interface{}) []Flash {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		log.Printf("Discarding malformed flashes: %v", err)
		return nil
	}
	return flashes
}
