package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/validation"
)

// Item объявление о потерянной или найденной вещи.
type Item struct {
	ID               uuid.UUID
	Title            string
	Type             valueobject.ItemType
	Location         string
	Description      string
	ImageRef         *string
	OwnerID          uuid.UUID
	OwnerDisplayName string
	Status           valueobject.ItemStatus
	VerificationPin  *valueobject.Pin
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewItem(owner Principal, title string, itemType string, location, description string) (*Item, error) {
	title = strings.TrimSpace(title)
	if err := validation.ValidateLength("название", title, validation.MinItemTitleLength, validation.MaxItemTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	t, err := valueobject.NewItemType(strings.ToLower(itemType))
	if err != nil {
		return nil, err
	}
	location = strings.TrimSpace(location)
	if err := validation.ValidateLength("место", location, 0, validation.MaxLocationLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", description, 0, validation.MaxItemDescriptionLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	now := time.Now()
	return &Item{
		ID:               uuid.New(),
		Title:            title,
		Type:             t,
		Location:         location,
		Description:      strings.TrimSpace(description),
		OwnerID:          owner.ID,
		OwnerDisplayName: owner.DisplayName,
		Status:           valueobject.ItemStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (i *Item) IsOwnedBy(userID uuid.UUID) bool {
	return i.OwnerID == userID
}

func (i *Item) HasOutstandingPin() bool {
	return i.VerificationPin != nil
}

// MintPin выдаёт новый PIN претенденту. Предыдущий PIN, если был, теряет силу.
func (i *Item) MintPin(requesterID uuid.UUID, pin valueobject.Pin) error {
	if i.Status.IsTerminal() {
		return apperror.ErrItemResolved
	}
	if i.IsOwnedBy(requesterID) {
		return apperror.ErrSelfClaim
	}
	i.VerificationPin = &pin
	i.UpdatedAt = time.Now()
	return nil
}

// VerifyPin сверяет PIN, введённый автором объявления, и закрывает объявление.
// При несовпадении состояние не меняется.
func (i *Item) VerifyPin(verifierID uuid.UUID, submitted string) error {
	if !i.IsOwnedBy(verifierID) {
		return apperror.ErrNotItemOwner
	}
	if i.Status.IsTerminal() {
		return apperror.ErrItemResolved
	}
	if i.VerificationPin == nil || string(*i.VerificationPin) != submitted {
		return apperror.ErrInvalidPin
	}
	if !i.Status.CanTransitionTo(valueobject.ItemStatusResolved) {
		return apperror.ErrItemResolved
	}
	i.Status = valueobject.ItemStatusResolved
	i.VerificationPin = nil
	i.UpdatedAt = time.Now()
	return nil
}

// SetImage прикрепляет изображение. Менять фото может только автор.
func (i *Item) SetImage(userID uuid.UUID, ref string) error {
	if !i.IsOwnedBy(userID) {
		return apperror.ErrForbidden
	}
	i.ImageRef = &ref
	i.UpdatedAt = time.Now()
	return nil
}
