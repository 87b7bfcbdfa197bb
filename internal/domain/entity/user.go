package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/validation"
)

// User пользователь площадки.
type User struct {
	ID           uuid.UUID
	Username     string
	DisplayName  string
	PasswordHash string
	Reputation   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(username, displayName, passwordHash string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if err := validation.ValidateEmail(username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(username, "@")
		if len([]rune(displayName)) < validation.MinDisplayNameLength {
			displayName = username
		}
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) Principal() Principal {
	return Principal{ID: u.ID, DisplayName: u.DisplayName}
}

// Principal аутентифицированный пользователь, извлечённый из access токена.
type Principal struct {
	ID          uuid.UUID
	DisplayName string
}

// RegistrationCode одноразовый код подтверждения регистрации.
type RegistrationCode struct {
	ID        uuid.UUID
	Username  string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
