package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

type MessageRepository interface {
	// Create добавляет сообщение. Хранилище назначает Seq и CreatedAt так, чтобы
	// время внутри одной переписки не убывало.
	Create(ctx context.Context, msg *entity.Message) error
	// FindByItemAndPair возвращает переписку двух пользователей по объявлению,
	// от старых к новым.
	FindByItemAndPair(ctx context.Context, itemID, userA, userB uuid.UUID) ([]*entity.Message, error)
	// FindCounterparties возвращает собеседников автора объявления с последним
	// сообщением каждого, от самых свежих.
	FindCounterparties(ctx context.Context, itemID, ownerID uuid.UUID) ([]*entity.ThreadSummary, error)
}
