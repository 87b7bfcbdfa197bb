package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	// AddReputation атомарно увеличивает репутацию и возвращает новое значение.
	AddReputation(ctx context.Context, id uuid.UUID, amount int) (int, error)
}

type RegistrationCodeRepository interface {
	Create(ctx context.Context, code *entity.RegistrationCode) error
	// Consume помечает действующий код использованным. false, если код не найден
	// или просрочен.
	Consume(ctx context.Context, username, code string, now time.Time) (bool, error)
}
