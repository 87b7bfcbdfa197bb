package entity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

func newActiveItem(t *testing.T) (*Item, Principal) {
	t.Helper()
	owner := Principal{ID: uuid.New(), DisplayName: "Автор"}
	item, err := NewItem(owner, "  Чёрный зонт ", "LOST", "Метро", "")
	require.NoError(t, err)
	return item, owner
}

func TestNewItem(t *testing.T) {
	item, owner := newActiveItem(t)

	assert.Equal(t, "Чёрный зонт", item.Title)
	assert.Equal(t, valueobject.ItemTypeLost, item.Type)
	assert.Equal(t, valueobject.ItemStatusActive, item.Status)
	assert.Equal(t, owner.ID, item.OwnerID)
	assert.Equal(t, "Автор", item.OwnerDisplayName)
	assert.Nil(t, item.VerificationPin)

	_, err := NewItem(owner, "ab", "lost", "", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewItem(owner, "Ключи", "stolen", "", "")
	assert.True(t, apperror.IsValidation(err))
}

func TestItem_MintAndVerify(t *testing.T) {
	item, owner := newActiveItem(t)
	claimant := uuid.New()

	assert.ErrorIs(t, item.MintPin(owner.ID, "1234"), apperror.ErrSelfClaim)

	require.NoError(t, item.MintPin(claimant, "1234"))
	require.NoError(t, item.MintPin(claimant, "5678"))
	assert.True(t, item.HasOutstandingPin())

	// Старый PIN после перевыпуска недействителен.
	assert.ErrorIs(t, item.VerifyPin(owner.ID, "1234"), apperror.ErrInvalidPin)
	assert.Equal(t, valueobject.ItemStatusActive, item.Status)

	assert.ErrorIs(t, item.VerifyPin(claimant, "5678"), apperror.ErrNotItemOwner)

	require.NoError(t, item.VerifyPin(owner.ID, "5678"))
	assert.Equal(t, valueobject.ItemStatusResolved, item.Status)
	assert.Nil(t, item.VerificationPin)

	assert.ErrorIs(t, item.VerifyPin(owner.ID, "5678"), apperror.ErrItemResolved)
	assert.ErrorIs(t, item.MintPin(claimant, "1111"), apperror.ErrItemResolved)
}

func TestItem_VerifyWithoutPin(t *testing.T) {
	item, owner := newActiveItem(t)
	assert.ErrorIs(t, item.VerifyPin(owner.ID, "1234"), apperror.ErrInvalidPin)
}

func TestItem_SetImage(t *testing.T) {
	item, owner := newActiveItem(t)

	assert.ErrorIs(t, item.SetImage(uuid.New(), "x.png"), apperror.ErrForbidden)
	require.NoError(t, item.SetImage(owner.ID, "owner/x.png"))
	require.NotNil(t, item.ImageRef)
	assert.Equal(t, "owner/x.png", *item.ImageRef)
}

func TestNewMessage(t *testing.T) {
	itemID, a, b := uuid.New(), uuid.New(), uuid.New()

	msg, err := NewMessage(itemID, a, b, "  где встретимся?  ")
	require.NoError(t, err)
	assert.Equal(t, "где встретимся?", msg.Content)
	assert.Equal(t, b, msg.Counterparty(a))
	assert.Equal(t, a, msg.Counterparty(b))
	assert.True(t, msg.Involves(a))
	assert.False(t, msg.Involves(uuid.New()))

	_, err = NewMessage(itemID, a, a, "себе")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewMessage(itemID, a, b, "   ")
	assert.True(t, apperror.IsValidation(err))

	_, err = NewMessage(itemID, a, b, strings.Repeat("я", 5001))
	assert.True(t, apperror.IsValidation(err))
}

func TestNewUser_DefaultDisplayName(t *testing.T) {
	u, err := NewUser(" Finder@Gmail.com ", "", "hash")
	require.NoError(t, err)
	assert.Equal(t, "finder@gmail.com", u.Username)
	assert.Equal(t, "finder", u.DisplayName)
	assert.Equal(t, 0, u.Reputation)
	assert.Equal(t, Principal{ID: u.ID, DisplayName: "finder"}, u.Principal())

	_, err = NewUser("finder@mail.ru", "", "hash")
	assert.True(t, apperror.IsValidation(err))
}
