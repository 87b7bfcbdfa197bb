package item

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/service"
)

type fakeImageStore struct {
	mu      sync.Mutex
	saved   []string
	deleted []string
	failing error
}

func (s *fakeImageStore) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if s.failing != nil {
		return "", 0, s.failing
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := ownerID.String() + "/" + originalName
	s.saved = append(s.saved, ref)
	return ref, int64(len(data)), nil
}

func (s *fakeImageStore) Delete(ctx context.Context, relativePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, relativePath)
	return nil
}

var owner = entity.Principal{ID: uuid.New(), DisplayName: "Ира"}

func TestCreateItem(t *testing.T) {
	repo := memory.NewItemRepository()
	uc := NewCreateItemUseCase(repo, service.NewCacheService())

	created, err := uc.Execute(context.Background(), owner, CreateItemInput{
		Title:    "  Синий зонт ",
		Type:     "LOST",
		Location: "Автобус 12",
	})
	require.NoError(t, err)
	assert.Equal(t, "Синий зонт", created.Title)
	assert.Equal(t, "lost", string(created.Type))
	assert.Equal(t, "active", string(created.Status))
	assert.Equal(t, "Ира", created.OwnerDisplayName)
	assert.Nil(t, created.VerificationPin)

	_, err = uc.Execute(context.Background(), owner, CreateItemInput{Title: "Зонт", Type: "stolen"})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(context.Background(), owner, CreateItemInput{Title: "ab", Type: "lost"})
	assert.True(t, apperror.IsValidation(err))
}

func TestListItems_FiltersAndCache(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()
	cache := service.NewCacheService()
	create := NewCreateItemUseCase(repo, cache)
	list := NewListItemsUseCase(repo, cache, time.Minute)

	_, err := create.Execute(ctx, owner, CreateItemInput{Title: "Потерян паспорт", Type: "lost"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = create.Execute(ctx, owner, CreateItemInput{Title: "Найдена перчатка", Type: "found"})
	require.NoError(t, err)

	page, err := list.Execute(ctx, repository.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Найдена перчатка", page.Items[0].Title)

	_, cached := cache.Get(FeedCacheKey(repository.ItemFilter{Limit: defaultFeedLimit}))
	assert.True(t, cached)

	page, err = list.Execute(ctx, repository.ItemFilter{Type: "lost"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)

	_, err = create.Execute(ctx, owner, CreateItemInput{Title: "Потерян телефон", Type: "lost"})
	require.NoError(t, err)
	_, cached = cache.Get(FeedCacheKey(repository.ItemFilter{Limit: defaultFeedLimit}))
	assert.False(t, cached, "создание объявления сбрасывает кэш ленты")

	page, err = list.Execute(ctx, repository.ItemFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	_, err = list.Execute(ctx, repository.ItemFilter{Status: "closed"})
	assert.True(t, apperror.IsValidation(err))
}

func TestAttachImage(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository()
	images := &fakeImageStore{}
	cache := service.NewCacheService()

	created, err := NewCreateItemUseCase(repo, cache).Execute(ctx, owner, CreateItemInput{Title: "Рюкзак", Type: "found"})
	require.NoError(t, err)

	uc := NewAttachImageUseCase(repo, images, cache)

	updated, err := uc.Execute(ctx, created.ID, owner.ID, "a.png", bytes.NewReader([]byte("img")))
	require.NoError(t, err)
	require.NotNil(t, updated.ImageRef)

	_, err = uc.Execute(ctx, created.ID, owner.ID, "b.png", bytes.NewReader([]byte("img2")))
	require.NoError(t, err)
	assert.Equal(t, []string{*updated.ImageRef}, images.deleted)

	_, err = uc.Execute(ctx, created.ID, uuid.New(), "c.png", bytes.NewReader([]byte("img3")))
	assert.True(t, apperror.IsForbidden(err))

	images.failing = errors.New("disk full")
	_, err = uc.Execute(ctx, created.ID, owner.ID, "d.png", bytes.NewReader([]byte("img4")))
	assert.Equal(t, apperror.ErrCodeInternal, apperror.CodeOf(err))
}
