package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

// ItemMutation изменяет объявление внутри критической секции. Ошибка из
// мутации отменяет запись.
type ItemMutation func(item *entity.Item) error

type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*entity.Item, int, error)
	// Save перезаписывает запись целиком при совпадении версии.
	Save(ctx context.Context, item *entity.Item) error
	// UpdateWithLock читает объявление под блокировкой строки, применяет
	// мутацию и сохраняет результат. Вызовы для одного id линеаризуются.
	UpdateWithLock(ctx context.Context, id uuid.UUID, mutate ItemMutation) (*entity.Item, error)
}

type ItemFilter struct {
	Type   string
	Status string
	Limit  int
	Offset int
}
