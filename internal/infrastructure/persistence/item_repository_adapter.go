package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/domain/valueobject"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

const itemColumns = `id, title, type, location, description, image_ref, owner_id, owner_display_name,
	status, verification_pin, version, created_at, updated_at`

type ItemRepositoryAdapter struct {
	db *sqlx.DB
}

func NewItemRepositoryAdapter(db *sqlx.DB) *ItemRepositoryAdapter {
	return &ItemRepositoryAdapter{db: db}
}

func (r *ItemRepositoryAdapter) Create(ctx context.Context, item *entity.Item) error {
	item.Version = 1
	query := `INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	row := newItemRow(item)
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.Title, row.Type, row.Location, row.Description, row.ImageRef, row.OwnerID, row.OwnerDisplayName,
		row.Status, row.VerificationPin, row.Version, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать объявление")
	}
	return nil
}

func (r *ItemRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	var row itemRow
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrItemNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявление")
	}
	return row.toEntity(), nil
}

func (r *ItemRepositoryAdapter) List(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int, error) {
	where := ` WHERE ($1 = '' OR type = $1) AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM items`+where, filter.Type, filter.Status); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать объявления")
	}

	var rows []itemRow
	query := `SELECT ` + itemColumns + ` FROM items` + where + ` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &rows, query, filter.Type, filter.Status, filter.Limit, filter.Offset); err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить объявления")
	}

	result := make([]*entity.Item, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, total, nil
}

func (r *ItemRepositoryAdapter) Save(ctx context.Context, item *entity.Item) error {
	return r.update(ctx, r.db, item)
}

func (r *ItemRepositoryAdapter) UpdateWithLock(ctx context.Context, id uuid.UUID, mutate repository.ItemMutation) (*entity.Item, error) {
	var result *entity.Item
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var row itemRow
		query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, query, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.ErrItemNotFound
			}
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось заблокировать объявление")
		}

		item := row.toEntity()
		if err := mutate(item); err != nil {
			return err
		}
		if err := r.update(ctx, tx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// update перезаписывает запись целиком, если версия не изменилась.
func (r *ItemRepositoryAdapter) update(ctx context.Context, exec sqlx.ExtContext, item *entity.Item) error {
	row := newItemRow(item)
	query := `UPDATE items SET title = $3, type = $4, location = $5, description = $6, image_ref = $7,
			owner_id = $8, owner_display_name = $9, status = $10, verification_pin = $11,
			version = version + 1, updated_at = $12
		WHERE id = $1 AND version = $2
		RETURNING version`

	var version int64
	err := sqlx.GetContext(ctx, exec, &version, query,
		row.ID, row.Version, row.Title, row.Type, row.Location, row.Description, row.ImageRef,
		row.OwnerID, row.OwnerDisplayName, row.Status, row.VerificationPin, row.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить объявление")
		}
		var exists bool
		if err := sqlx.GetContext(ctx, exec, &exists, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, row.ID); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить объявление")
		}
		if !exists {
			return apperror.ErrItemNotFound
		}
		return apperror.ErrVersionConflict
	}

	item.Version = version
	return nil
}

type itemRow struct {
	ID               uuid.UUID `db:"id"`
	Title            string    `db:"title"`
	Type             string    `db:"type"`
	Location         string    `db:"location"`
	Description      string    `db:"description"`
	ImageRef         *string   `db:"image_ref"`
	OwnerID          uuid.UUID `db:"owner_id"`
	OwnerDisplayName string    `db:"owner_display_name"`
	Status           string    `db:"status"`
	VerificationPin  *string   `db:"verification_pin"`
	Version          int64     `db:"version"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func newItemRow(item *entity.Item) itemRow {
	row := itemRow{
		ID:               item.ID,
		Title:            item.Title,
		Type:             string(item.Type),
		Location:         item.Location,
		Description:      item.Description,
		ImageRef:         item.ImageRef,
		OwnerID:          item.OwnerID,
		OwnerDisplayName: item.OwnerDisplayName,
		Status:           string(item.Status),
		Version:          item.Version,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
	if item.VerificationPin != nil {
		pin := item.VerificationPin.String()
		row.VerificationPin = &pin
	}
	return row
}

func (r *itemRow) toEntity() *entity.Item {
	item := &entity.Item{
		ID:               r.ID,
		Title:            r.Title,
		Type:             valueobject.ItemType(r.Type),
		Location:         r.Location,
		Description:      r.Description,
		ImageRef:         r.ImageRef,
		OwnerID:          r.OwnerID,
		OwnerDisplayName: r.OwnerDisplayName,
		Status:           valueobject.ItemStatus(r.Status),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.VerificationPin != nil {
		pin := valueobject.Pin(*r.VerificationPin)
		item.VerificationPin = &pin
	}
	return item
}
