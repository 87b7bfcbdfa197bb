package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey      = "userID"
	ContextDisplayNameKey = "displayName"
)

// TokenParser извлекает пользователя из access токена.
type TokenParser interface {
	ParseAccess(token string) (entity.Principal, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		principal, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || principal.ID == uuid.Nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, principal.ID)
		c.Set(ContextDisplayNameKey, principal.DisplayName)
		c.Next()
	}
}

// PrincipalFrom возвращает пользователя, сохранённый AuthMiddleware.
func PrincipalFrom(c *gin.Context) (entity.Principal, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return entity.Principal{}, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return entity.Principal{}, false
	}
	return entity.Principal{ID: userID, DisplayName: c.GetString(ContextDisplayNameKey)}, true
}
