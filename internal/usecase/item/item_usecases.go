package item

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedCache кэш страниц ленты.
type FeedCache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	InvalidateFeed()
}

// ImageStore файловое хранилище фотографий.
type ImageStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error)
	Delete(ctx context.Context, relativePath string) error
}

type CreateItemInput struct {
	Title       string
	Type        string
	Location    string
	Description string
}

type CreateItemUseCase struct {
	itemRepo repository.ItemRepository
	cache    FeedCache
}

func NewCreateItemUseCase(itemRepo repository.ItemRepository, cache FeedCache) *CreateItemUseCase {
	return &CreateItemUseCase{itemRepo: itemRepo, cache: cache}
}

func (uc *CreateItemUseCase) Execute(ctx context.Context, owner entity.Principal, in CreateItemInput) (*entity.Item, error) {
	item, err := entity.NewItem(owner, in.Title, in.Type, in.Location, in.Description)
	if err != nil {
		return nil, err
	}

	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.InvalidateFeed()
	}
	return item, nil
}

type GetItemUseCase struct {
	itemRepo repository.ItemRepository
}

func NewGetItemUseCase(itemRepo repository.ItemRepository) *GetItemUseCase {
	return &GetItemUseCase{itemRepo: itemRepo}
}

func (uc *GetItemUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return uc.itemRepo.FindByID(ctx, id)
}

// FeedPage страница ленты.
type FeedPage struct {
	Items []*entity.Item
	Total int
}

type ListItemsUseCase struct {
	itemRepo repository.ItemRepository
	cache    FeedCache
	ttl      time.Duration
}

func NewListItemsUseCase(itemRepo repository.ItemRepository, cache FeedCache, ttl time.Duration) *ListItemsUseCase {
	return &ListItemsUseCase{itemRepo: itemRepo, cache: cache, ttl: ttl}
}

// Execute возвращает ленту от новых к старым.
func (uc *ListItemsUseCase) Execute(ctx context.Context, filter repository.ItemFilter) (*FeedPage, error) {
	if filter.Type != "" {
		if _, err := valueobject.NewItemType(filter.Type); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" {
		if _, err := valueobject.NewItemStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultFeedLimit
	}
	if filter.Limit > maxFeedLimit {
		filter.Limit = maxFeedLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	key := FeedCacheKey(filter)
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(key); ok {
			if page, ok := cached.(*FeedPage); ok {
				return page, nil
			}
		}
	}

	items, total, err := uc.itemRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &FeedPage{Items: items, Total: total}

	if uc.cache != nil && uc.ttl > 0 {
		uc.cache.Set(key, page, uc.ttl)
	}
	return page, nil
}

// FeedCacheKey ключ страницы ленты. Все ключи начинаются с "feed:".
func FeedCacheKey(f repository.ItemFilter) string {
	return fmt.Sprintf("feed:%s:%s:%d:%d", f.Type, f.Status, f.Limit, f.Offset)
}

type AttachImageUseCase struct {
	itemRepo repository.ItemRepository
	images   ImageStore
	cache    FeedCache
}

func NewAttachImageUseCase(itemRepo repository.ItemRepository, images ImageStore, cache FeedCache) *AttachImageUseCase {
	return &AttachImageUseCase{itemRepo: itemRepo, images: images, cache: cache}
}

// Execute сохраняет фото объявления. Загружать фото может только автор.
func (uc *AttachImageUseCase) Execute(ctx context.Context, itemID, userID uuid.UUID, filename string, r io.Reader) (*entity.Item, error) {
	item, err := uc.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsOwnedBy(userID) {
		return nil, apperror.ErrForbidden
	}

	ref, _, err := uc.images.Save(ctx, userID, filename, r)
	if err != nil {
		if apperror.IsValidation(err) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить изображение")
	}

	previous := item.ImageRef
	if err := item.SetImage(userID, ref); err != nil {
		return nil, err
	}
	if err := uc.itemRepo.Save(ctx, item); err != nil {
		if delErr := uc.images.Delete(ctx, ref); delErr != nil {
			logger.Log.WithError(delErr).Warn("orphan image cleanup failed")
		}
		return nil, err
	}

	if previous != nil && *previous != ref {
		if err := uc.images.Delete(ctx, *previous); err != nil {
			logger.Log.WithError(err).Warn("previous image cleanup failed")
		}
	}
	if uc.cache != nil {
		uc.cache.InvalidateFeed()
	}
	return item, nil
}
