package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/validation"
)

// Message сообщение в переписке по объявлению. Сообщения только добавляются.
type Message struct {
	ID         uuid.UUID
	Seq        int64
	ItemID     uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Content    string
	CreatedAt  time.Time
}

func NewMessage(itemID, senderID, receiverID uuid.UUID, content string) (*Message, error) {
	if senderID == receiverID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя отправить сообщение самому себе")
	}
	content = strings.TrimSpace(content)
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return &Message{
		ID:         uuid.New(),
		ItemID:     itemID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}, nil
}

// Counterparty возвращает второго участника переписки относительно userID.
func (m *Message) Counterparty(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

func (m *Message) Involves(userID uuid.UUID) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// ThreadSummary краткая сводка переписки автора объявления с одним собеседником.
type ThreadSummary struct {
	CounterpartyID     uuid.UUID
	LastMessagePreview string
	LastMessageAt      time.Time
}

// ThreadView результат запроса переписки: автор видит список собеседников,
// остальные видят свою переписку с автором.
type ThreadView struct {
	ItemID   uuid.UUID
	OwnerID  uuid.UUID
	IsOwner  bool
	Threads  []*ThreadSummary
	Messages []*Message
}
