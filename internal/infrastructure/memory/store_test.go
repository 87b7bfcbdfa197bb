package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

func newItem(t *testing.T) *entity.Item {
	t.Helper()
	item, err := entity.NewItem(entity.Principal{ID: uuid.New(), DisplayName: "Автор"}, "Часы", "found", "", "")
	require.NoError(t, err)
	return item
}

func TestItemRepository_SaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	item := newItem(t)
	require.NoError(t, repo.Create(ctx, item))

	first, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)

	first.Location = "Вокзал"
	require.NoError(t, repo.Save(ctx, first))
	assert.EqualValues(t, 2, first.Version)

	second.Location = "Парк"
	assert.ErrorIs(t, repo.Save(ctx, second), apperror.ErrVersionConflict)
}

func TestItemRepository_UpdateWithLockRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	item := newItem(t)
	require.NoError(t, repo.Create(ctx, item))

	_, err := repo.UpdateWithLock(ctx, item.ID, func(i *entity.Item) error {
		i.Title = "изменено"
		return apperror.ErrInvalidPin
	})
	require.ErrorIs(t, err, apperror.ErrInvalidPin)

	stored, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Часы", stored.Title)
	assert.EqualValues(t, 1, stored.Version)
}

func TestItemRepository_ListPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	base := time.Now()
	for i := 0; i < 5; i++ {
		item := newItem(t)
		item.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, item))
	}

	items, total, err := repo.List(ctx, repository.ItemFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, items, 2)
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))
	assert.Equal(t, base.Add(3*time.Minute), items[0].CreatedAt)

	items, _, err = repo.List(ctx, repository.ItemFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMessageRepository_CounterpartiesAndOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageRepository()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.SetClock(func() time.Time { return fixed })

	itemID, owner, a, b := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	post := func(from, to uuid.UUID, content string) {
		msg, err := entity.NewMessage(itemID, from, to, content)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, msg))
	}
	post(a, owner, "a1")
	post(b, owner, "b1")
	post(owner, a, "o-a")

	msgs, err := repo.FindByItemAndPair(ctx, itemID, owner, a)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a1", msgs[0].Content)
	assert.Equal(t, "o-a", msgs[1].Content)

	threads, err := repo.FindCounterparties(ctx, itemID, owner)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, a, threads[0].CounterpartyID)
	assert.Equal(t, "o-a", threads[0].LastMessagePreview)
	assert.Equal(t, b, threads[1].CounterpartyID)

	other, err := repo.FindCounterparties(ctx, uuid.New(), owner)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRegistrationCodeRepository_Consume(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationCodeRepository()
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &entity.RegistrationCode{
		ID: uuid.New(), Username: "a@gmail.com", Code: "1234", ExpiresAt: now.Add(time.Minute), CreatedAt: now,
	}))
	require.NoError(t, repo.Create(ctx, &entity.RegistrationCode{
		ID: uuid.New(), Username: "a@gmail.com", Code: "5555", ExpiresAt: now.Add(-time.Second), CreatedAt: now,
	}))

	ok, err := repo.Consume(ctx, "a@gmail.com", "5555", now)
	require.NoError(t, err)
	assert.False(t, ok, "просроченный код")

	ok, err = repo.Consume(ctx, "b@gmail.com", "1234", now)
	require.NoError(t, err)
	assert.False(t, ok, "чужой код")

	ok, err = repo.Consume(ctx, "a@gmail.com", "1234", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, "a@gmail.com", "1234", now)
	require.NoError(t, err)
	assert.False(t, ok, "код одноразовый")
}
