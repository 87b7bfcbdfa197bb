package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/http/middleware"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

func getPrincipal(c *gin.Context) (entity.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return entity.Principal{}, apperror.ErrUnauthorized
	}
	return p, nil
}

// parseItemID разбирает :id. Некорректный id равносилен несуществующему объявлению.
func parseItemID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.ErrItemNotFound
	}
	return id, nil
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
