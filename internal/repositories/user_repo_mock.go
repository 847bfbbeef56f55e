package repositories

import (
	"fmt"
	"sync"

	"glucolog/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create adds a new user, enforcing email uniqueness.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

// GetByEmail returns a user by exact email.
func (r *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return &user, nil
}
