package claim

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/metrics"
)

type MintPinUseCase struct {
	itemRepo repository.ItemRepository
	pins     valueobject.PinGenerator
	feed     FeedInvalidator
}

func NewMintPinUseCase(itemRepo repository.ItemRepository, pins valueobject.PinGenerator) *MintPinUseCase {
	if pins == nil {
		pins = valueobject.RandomPinGenerator{}
	}
	return &MintPinUseCase{itemRepo: itemRepo, pins: pins}
}

// SetFeedCache подключает сброс кэша ленты: после выдачи PIN меняется has_pending_claim.
func (uc *MintPinUseCase) SetFeedCache(f FeedInvalidator) {
	uc.feed = f
}

// Execute выдаёт претенденту новый PIN. Параллельные вызовы для одного
// объявления сериализуются, действительным остаётся PIN последней записи.
func (uc *MintPinUseCase) Execute(ctx context.Context, itemID, requesterID uuid.UUID) (valueobject.Pin, error) {
	pin, err := uc.pins.Generate()
	if err != nil {
		return "", err
	}

	_, err = uc.itemRepo.UpdateWithLock(ctx, itemID, func(item *entity.Item) error {
		return item.MintPin(requesterID, pin)
	})
	if err != nil {
		return "", err
	}

	if uc.feed != nil {
		uc.feed.InvalidateFeed()
	}
	metrics.PinsMinted.Inc()
	logger.Log.WithFields(logrus.Fields{
		"item_id":      itemID,
		"requester_id": requesterID,
	}).Debug("pin minted")

	return pin, nil
}
