package claim

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/metrics"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// EventItemResolved отправляется автору после закрытия объявления.
const EventItemResolved = "item.resolved"

// Creditor начисляет репутацию.
type Creditor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int) (int, error)
}

// Notifier доставляет событие пользователю (WebSocket).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// FeedInvalidator сбрасывает кэш ленты.
type FeedInvalidator interface {
	InvalidateFeed()
}

// VerifyResult итог подтверждения PIN.
type VerifyResult struct {
	Resolved   bool
	Reputation int
}

type VerifyPinUseCase struct {
	itemRepo repository.ItemRepository
	ledger   Creditor
	reward   int
	notifier Notifier
	feed     FeedInvalidator
}

func NewVerifyPinUseCase(itemRepo repository.ItemRepository, ledger Creditor, reward int) *VerifyPinUseCase {
	return &VerifyPinUseCase{itemRepo: itemRepo, ledger: ledger, reward: reward}
}

// SetNotifier подключает доставку событий о закрытии объявления.
func (uc *VerifyPinUseCase) SetNotifier(n Notifier) {
	uc.notifier = n
}

// SetFeedCache подключает сброс кэша ленты.
func (uc *VerifyPinUseCase) SetFeedCache(f FeedInvalidator) {
	uc.feed = f
}

// Execute сверяет PIN и закрывает объявление. Сравнение и переход выполняются
// под блокировкой строки, поэтому из параллельных вызовов успешен ровно один,
// остальные получают CONFLICT, и репутация начисляется один раз.
func (uc *VerifyPinUseCase) Execute(ctx context.Context, itemID, verifierID uuid.UUID, pin string) (*VerifyResult, error) {
	item, err := uc.itemRepo.UpdateWithLock(ctx, itemID, func(item *entity.Item) error {
		return item.VerifyPin(verifierID, pin)
	})
	if err != nil {
		metrics.PinVerifications.WithLabelValues(verifyOutcome(err)).Inc()
		if apperror.IsInvalidPin(err) {
			logger.Log.WithFields(logrus.Fields{
				"item_id":     itemID,
				"verifier_id": verifierID,
			}).Info("pin mismatch")
		}
		return &VerifyResult{Resolved: false}, err
	}
	metrics.PinVerifications.WithLabelValues(metrics.VerifyResolved).Inc()

	result := &VerifyResult{Resolved: true}

	// Объявление уже закрыто, ошибка начисления не откатывает переход.
	score, err := uc.ledger.Credit(ctx, item.OwnerID, uc.reward)
	if err != nil {
		metrics.ReputationCreditFailures.Inc()
		logger.Log.WithFields(logrus.Fields{
			"item_id":  itemID,
			"owner_id": item.OwnerID,
			"error":    err.Error(),
		}).Error("reputation credit failed")
	} else {
		result.Reputation = score
	}

	if uc.feed != nil {
		uc.feed.InvalidateFeed()
	}
	if uc.notifier != nil {
		payload := map[string]any{"item_id": item.ID, "reputation": result.Reputation}
		if err := uc.notifier.BroadcastToUser(item.OwnerID, EventItemResolved, payload); err != nil {
			logger.Log.WithError(err).Warn("item.resolved notification failed")
		}
	}

	return result, nil
}

func verifyOutcome(err error) string {
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeInvalidPin:
		return metrics.VerifyInvalidPin
	case apperror.ErrCodeConflict:
		return metrics.VerifyConflict
	case apperror.ErrCodeForbidden:
		return metrics.VerifyForbidden
	default:
		return metrics.VerifyError
	}
}
