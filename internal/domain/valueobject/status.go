package valueobject

import "github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"

type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "active"
	ItemStatusResolved ItemStatus = "resolved"
)

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusActive, ItemStatusResolved:
		return true
	}
	return false
}

func (s ItemStatus) CanTransitionTo(newStatus ItemStatus) bool {
	transitions := map[ItemStatus][]ItemStatus{
		ItemStatusActive:   {ItemStatusResolved},
		ItemStatusResolved: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusResolved
}

func NewItemStatus(status string) (ItemStatus, error) {
	s := ItemStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус объявления")
	}
	return s, nil
}

type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeLost, ItemTypeFound:
		return true
	}
	return false
}

func NewItemType(itemType string) (ItemType, error) {
	t := ItemType(itemType)
	if !t.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "тип объявления должен быть lost или found")
	}
	return t, nil
}
