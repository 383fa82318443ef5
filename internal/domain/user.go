package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID  = errors.New("user ID cannot be empty")
	ErrInvalidEmail = errors.New("invalid email format")
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrEmptyName    = errors.New("name cannot be empty")
)

// User is a member of the collaboration workspace. Only the fields the
// notification pipeline reads are modelled here.
type User struct {
	ID          uuid.UUID               `json:"id"`
	Email       string                  `json:"email"`
	Name        string                  `json:"name"`
	Preferences NotificationPreferences `json:"notification_preferences"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// NewUser creates a new User with default preferences.
func NewUser(email, name string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !strings.Contains(u.Email, "@") || strings.HasPrefix(u.Email, "@") ||
		strings.HasSuffix(u.Email, "@") {
		return ErrInvalidEmail
	}

	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}

	return nil
}
