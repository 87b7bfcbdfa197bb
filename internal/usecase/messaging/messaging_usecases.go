package messaging

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/metrics"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/validation"
)

// EventMessageNew отправляется получателю после записи сообщения.
const EventMessageNew = "message.new"

// Notifier доставляет событие пользователю (WebSocket).
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

type PostMessageUseCase struct {
	itemRepo repository.ItemRepository
	userRepo repository.UserRepository
	msgRepo  repository.MessageRepository
	notifier Notifier
}

func NewPostMessageUseCase(itemRepo repository.ItemRepository, userRepo repository.UserRepository, msgRepo repository.MessageRepository) *PostMessageUseCase {
	return &PostMessageUseCase{itemRepo: itemRepo, userRepo: userRepo, msgRepo: msgRepo}
}

// SetNotifier подключает push-доставку поверх опроса.
func (uc *PostMessageUseCase) SetNotifier(n Notifier) {
	uc.notifier = n
}

// Execute сохраняет сообщение. Один из участников всегда автор объявления.
func (uc *PostMessageUseCase) Execute(ctx context.Context, itemID, senderID, receiverID uuid.UUID, content string) (*entity.Message, error) {
	msg, err := entity.NewMessage(itemID, senderID, receiverID, content)
	if err != nil {
		return nil, err
	}

	item, err := uc.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !item.IsOwnedBy(senderID) && !item.IsOwnedBy(receiverID) {
		return nil, apperror.ErrNotParticipant
	}

	if _, err := uc.userRepo.FindByID(ctx, receiverID); err != nil {
		return nil, err
	}

	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesPosted.Inc()

	if uc.notifier != nil {
		payload := map[string]any{
			"id":          msg.ID,
			"item_id":     msg.ItemID,
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"content":     msg.Content,
			"created_at":  msg.CreatedAt,
		}
		if err := uc.notifier.BroadcastToUser(receiverID, EventMessageNew, payload); err != nil {
			logger.Log.WithError(err).Warn("message.new notification failed")
		}
	}

	return msg, nil
}

type GetThreadUseCase struct {
	itemRepo repository.ItemRepository
	msgRepo  repository.MessageRepository
}

func NewGetThreadUseCase(itemRepo repository.ItemRepository, msgRepo repository.MessageRepository) *GetThreadUseCase {
	return &GetThreadUseCase{itemRepo: itemRepo, msgRepo: msgRepo}
}

// Execute возвращает автору список собеседников, остальным их переписку с автором.
func (uc *GetThreadUseCase) Execute(ctx context.Context, itemID, principalID uuid.UUID) (*entity.ThreadView, error) {
	item, err := uc.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	view := &entity.ThreadView{
		ItemID:  item.ID,
		OwnerID: item.OwnerID,
		IsOwner: item.IsOwnedBy(principalID),
	}

	if view.IsOwner {
		threads, err := uc.msgRepo.FindCounterparties(ctx, item.ID, item.OwnerID)
		if err != nil {
			return nil, err
		}
		for _, t := range threads {
			t.LastMessagePreview = validation.Truncate(t.LastMessagePreview, validation.MaxPreviewLength)
		}
		view.Threads = threads
		return view, nil
	}

	messages, err := uc.msgRepo.FindByItemAndPair(ctx, item.ID, principalID, item.OwnerID)
	if err != nil {
		return nil, err
	}
	view.Messages = messages
	return view, nil
}

type GetThreadWithUseCase struct {
	itemRepo repository.ItemRepository
	msgRepo  repository.MessageRepository
}

func NewGetThreadWithUseCase(itemRepo repository.ItemRepository, msgRepo repository.MessageRepository) *GetThreadWithUseCase {
	return &GetThreadWithUseCase{itemRepo: itemRepo, msgRepo: msgRepo}
}

// Execute возвращает переписку автора объявления с конкретным собеседником.
// Читать её могут только эти двое, ownerID обязан совпадать с автором объявления.
func (uc *GetThreadWithUseCase) Execute(ctx context.Context, itemID, callerID, ownerID, otherUserID uuid.UUID) ([]*entity.Message, error) {
	item, err := uc.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return uc.thread(ctx, item, callerID, ownerID, otherUserID)
}

// ExecuteForItemOwner то же, что Execute, но автор берётся из объявления:
// маршрут HTTP не содержит ownerID. Проверки прав общие, в thread.
func (uc *GetThreadWithUseCase) ExecuteForItemOwner(ctx context.Context, itemID, callerID, otherUserID uuid.UUID) ([]*entity.Message, error) {
	item, err := uc.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return uc.thread(ctx, item, callerID, item.OwnerID, otherUserID)
}

func (uc *GetThreadWithUseCase) thread(ctx context.Context, item *entity.Item, callerID, ownerID, otherUserID uuid.UUID) ([]*entity.Message, error) {
	if callerID != ownerID && callerID != otherUserID {
		return nil, apperror.ErrNotParticipant
	}
	if ownerID == otherUserID {
		return nil, apperror.New(apperror.ErrCodeValidation, "собеседник должен отличаться от автора")
	}
	if !item.IsOwnedBy(ownerID) {
		return nil, apperror.ErrNotParticipant
	}

	return uc.msgRepo.FindByItemAndPair(ctx, item.ID, ownerID, otherUserID)
}
