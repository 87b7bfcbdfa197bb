package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// UserFinder читает пользователей.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// ReputationReader читает текущий счёт репутации.
type ReputationReader interface {
	Reputation(ctx context.Context, userID uuid.UUID) (int, error)
}

// ProfileHandler отдаёт публичные профили пользователей.
type ProfileHandler struct {
	users  UserFinder
	ledger ReputationReader
}

func NewProfileHandler(users UserFinder, ledger ReputationReader) *ProfileHandler {
	return &ProfileHandler{users: users, ledger: ledger}
}

type profileResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Reputation  int       `json:"reputation"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetProfile обрабатывает GET /api/users/:id.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrUserNotFound)
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, profileResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Reputation:  user.Reputation,
		CreatedAt:   user.CreatedAt,
	})
}

// GetReputation обрабатывает GET /api/users/:id/reputation.
func (h *ProfileHandler) GetReputation(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrUserNotFound)
		return
	}

	score, err := h.ledger.Reputation(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"user_id": userID, "reputation": score})
}
