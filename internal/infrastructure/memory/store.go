// Package memory содержит in-memory реализации репозиториев с той же
// семантикой блокировок и упорядочивания, что и адаптеры PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

type ItemRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]*entity.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[uuid.UUID]*entity.Item)}
}

func (r *ItemRepository) Create(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Version = 1
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil, apperror.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (r *ItemRepository) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.Item
	for _, item := range r.items {
		if filter.Type != "" && string(item.Type) != filter.Type {
			continue
		}
		if filter.Status != "" && string(item.Status) != filter.Status {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	result := make([]*entity.Item, 0, end-start)
	for _, item := range matched[start:end] {
		result = append(result, cloneItem(item))
	}
	return result, total, nil
}

func (r *ItemRepository) Save(ctx context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(item)
}

func (r *ItemRepository) UpdateWithLock(ctx context.Context, id uuid.UUID, mutate repository.ItemMutation) (*entity.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return nil, apperror.ErrItemNotFound
	}
	item := cloneItem(stored)
	if err := mutate(item); err != nil {
		return nil, err
	}
	if err := r.saveLocked(item); err != nil {
		return nil, err
	}
	return cloneItem(item), nil
}

func (r *ItemRepository) saveLocked(item *entity.Item) error {
	stored, ok := r.items[item.ID]
	if !ok {
		return apperror.ErrItemNotFound
	}
	if stored.Version != item.Version {
		return apperror.ErrVersionConflict
	}
	item.Version++
	r.items[item.ID] = cloneItem(item)
	return nil
}

func cloneItem(item *entity.Item) *entity.Item {
	c := *item
	if item.ImageRef != nil {
		ref := *item.ImageRef
		c.ImageRef = &ref
	}
	if item.VerificationPin != nil {
		pin := *item.VerificationPin
		c.VerificationPin = &pin
	}
	return &c
}

type MessageRepository struct {
	mu       sync.Mutex
	seq      int64
	messages []*entity.Message
	now      func() time.Time
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{now: time.Now}
}

// SetClock подменяет источник времени.
func (r *MessageRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MessageRepository) Create(ctx context.Context, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now()
	for _, m := range r.messages {
		if m.ItemID == msg.ItemID && samePair(m, msg.SenderID, msg.ReceiverID) && m.CreatedAt.After(createdAt) {
			createdAt = m.CreatedAt
		}
	}

	r.seq++
	msg.Seq = r.seq
	msg.CreatedAt = createdAt
	stored := *msg
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *MessageRepository) FindByItemAndPair(ctx context.Context, itemID, userA, userB uuid.UUID) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Message
	for _, m := range r.messages {
		if m.ItemID == itemID && samePair(m, userA, userB) {
			c := *m
			result = append(result, &c)
		}
	}
	sortOldestFirst(result)
	return result, nil
}

func (r *MessageRepository) FindCounterparties(ctx context.Context, itemID, ownerID uuid.UUID) ([]*entity.ThreadSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest := make(map[uuid.UUID]*entity.Message)
	for _, m := range r.messages {
		if m.ItemID != itemID || !m.Involves(ownerID) {
			continue
		}
		other := m.Counterparty(ownerID)
		if cur, ok := latest[other]; !ok || newer(m, cur) {
			latest[other] = m
		}
	}

	last := make([]*entity.Message, 0, len(latest))
	for _, m := range latest {
		last = append(last, m)
	}
	sortOldestFirst(last)

	result := make([]*entity.ThreadSummary, 0, len(last))
	for i := len(last) - 1; i >= 0; i-- {
		result = append(result, &entity.ThreadSummary{
			CounterpartyID:     last[i].Counterparty(ownerID),
			LastMessagePreview: last[i].Content,
			LastMessageAt:      last[i].CreatedAt,
		})
	}
	return result, nil
}

func samePair(m *entity.Message, a, b uuid.UUID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func newer(a, b *entity.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.Seq > b.Seq
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func sortOldestFirst(msgs []*entity.Message) {
	sort.Slice(msgs, func(i, j int) bool { return newer(msgs[j], msgs[i]) })
}

type UserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) {
			return apperror.ErrUsernameTaken
		}
	}
	c := *user
	r.users[user.ID] = &c
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (r *UserRepository) AddReputation(ctx context.Context, id uuid.UUID, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return 0, apperror.ErrUserNotFound
	}
	u.Reputation += amount
	return u.Reputation, nil
}

type RegistrationCodeRepository struct {
	mu    sync.Mutex
	codes []entity.RegistrationCode
}

func NewRegistrationCodeRepository() *RegistrationCodeRepository {
	return &RegistrationCodeRepository{}
}

func (r *RegistrationCodeRepository) Create(ctx context.Context, code *entity.RegistrationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.codes = append(r.codes, *code)
	return nil
}

// Consume гасит самый свежий подходящий код.
func (r *RegistrationCodeRepository) Consume(ctx context.Context, username, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.codes) - 1; i >= 0; i-- {
		c := &r.codes[i]
		if c.Username == username && c.Code == code && !c.Used && c.ExpiresAt.After(now) {
			c.Used = true
			return true, nil
		}
	}
	return false, nil
}
