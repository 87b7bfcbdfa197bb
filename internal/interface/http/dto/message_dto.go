package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

type PostMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	ItemID     uuid.UUID `json:"item_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type ThreadSummaryResponse struct {
	CounterpartyID     uuid.UUID `json:"counterparty_id"`
	LastMessagePreview string    `json:"last_message_preview"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

// ThreadResponse для автора заполнен threads, для остальных messages.
type ThreadResponse struct {
	ItemID   uuid.UUID               `json:"item_id"`
	OwnerID  uuid.UUID               `json:"owner_id"`
	IsOwner  bool                    `json:"is_owner"`
	Threads  []ThreadSummaryResponse `json:"threads"`
	Messages []MessageResponse       `json:"messages"`
}

func ToMessageResponse(msg *entity.Message) MessageResponse {
	return MessageResponse{
		ID:         msg.ID,
		ItemID:     msg.ItemID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
}

func ToMessageResponses(msgs []*entity.Message) []MessageResponse {
	result := make([]MessageResponse, len(msgs))
	for i, msg := range msgs {
		result[i] = ToMessageResponse(msg)
	}
	return result
}

func ToThreadResponse(view *entity.ThreadView) ThreadResponse {
	threads := make([]ThreadSummaryResponse, len(view.Threads))
	for i, t := range view.Threads {
		threads[i] = ThreadSummaryResponse{
			CounterpartyID:     t.CounterpartyID,
			LastMessagePreview: t.LastMessagePreview,
			LastMessageAt:      t.LastMessageAt,
		}
	}
	return ThreadResponse{
		ItemID:   view.ItemID,
		OwnerID:  view.OwnerID,
		IsOwner:  view.IsOwner,
		Threads:  threads,
		Messages: ToMessageResponses(view.Messages),
	}
}
