package services

import "errors"

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidGlucoseValue is returned when a glucose value is not a finite number.
	ErrInvalidGlucoseValue = errors.New("invalid glucose value")
)
