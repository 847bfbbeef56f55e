package services

import (
	"errors"
	"fmt"

	"glucolog/internal/models"
	"glucolog/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and credential checks.
type AuthService struct {
	userRepo  repositories.UserRepository
	publisher EventPublisher
	hashCost  int
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(userRepo repositories.UserRepository, publisher EventPublisher) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		publisher: publisher,
		hashCost:  bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

// Register creates a user with a hashed password. Emails are compared
// exactly, so addresses differing only in case are distinct accounts.
func (s *AuthService) Register(email, password string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("email '%s': %w", email, ErrEmailTaken)
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("email '%s': %w", email, ErrEmailTaken)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	publishEvent(s.publisher, EventUserRegistered, map[string]interface{}{
		"userID": user.ID,
	})
	return user, nil
}

// Authenticate returns the user only if the password matches the stored hash.
// Unknown emails and wrong passwords yield the same ErrInvalidCredentials.
func (s *AuthService) Authenticate(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID loads the user a session refers to.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.GetByID(id)
}
