package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
)

type CreateItemRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ItemResponse публичное представление объявления. PIN никогда не отдаётся.
type ItemResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"`
	Location         string    `json:"location"`
	Description      string    `json:"description"`
	ImageRef         *string   `json:"image_ref,omitempty"`
	OwnerID          uuid.UUID `json:"owner_id"`
	OwnerDisplayName string    `json:"owner_display_name"`
	Status           string    `json:"status"`
	HasPendingClaim  bool      `json:"has_pending_claim"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type MintPinResponse struct {
	ItemID uuid.UUID `json:"item_id"`
	Pin    string    `json:"pin"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin"`
}

type VerifyPinResponse struct {
	Resolved   bool `json:"resolved"`
	Reputation int  `json:"reputation"`
}

func ToItemResponse(item *entity.Item) ItemResponse {
	return ItemResponse{
		ID:               item.ID,
		Title:            item.Title,
		Type:             string(item.Type),
		Location:         item.Location,
		Description:      item.Description,
		ImageRef:         item.ImageRef,
		OwnerID:          item.OwnerID,
		OwnerDisplayName: item.OwnerDisplayName,
		Status:           string(item.Status),
		HasPendingClaim:  item.HasOutstandingPin(),
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

func ToItemResponses(items []*entity.Item) []ItemResponse {
	result := make([]ItemResponse, len(items))
	for i, item := range items {
		result[i] = ToItemResponse(item)
	}
	return result
}
