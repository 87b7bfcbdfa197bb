package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

type MessageRepositoryAdapter struct {
	db *sqlx.DB
}

func NewMessageRepositoryAdapter(db *sqlx.DB) *MessageRepositoryAdapter {
	return &MessageRepositoryAdapter{db: db}
}

// pairLockKey ключ advisory-блокировки переписки: не зависит от порядка собеседников.
func pairLockKey(itemID, userA, userB uuid.UUID) string {
	lo, hi := userA.String(), userB.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	return itemID.String() + ":" + lo + ":" + hi
}

// insertMessageQuery берёт время с часов базы и не опускает его ниже
// последнего сообщения переписки. Выполняется под pg_advisory_xact_lock.
const insertMessageQuery = `
	INSERT INTO messages (id, item_id, sender_id, receiver_id, content, created_at)
	VALUES ($1, $2, $3, $4, $5, GREATEST(clock_timestamp(), COALESCE((
		SELECT MAX(created_at) FROM messages
		WHERE item_id = $2
		  AND ((sender_id = $3 AND receiver_id = $4) OR (sender_id = $4 AND receiver_id = $3))
	), clock_timestamp())))
	RETURNING seq, created_at`

// Create сохраняет сообщение. Вставки в одну переписку сериализуются
// блокировкой до коммита, поэтому created_at не убывает в порядке коммитов,
// порядок при равенстве задаёт seq.
func (r *MessageRepositoryAdapter) Create(ctx context.Context, msg *entity.Message) error {
	var out struct {
		Seq       int64     `db:"seq"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		lockKey := pairLockKey(msg.ItemID, msg.SenderID, msg.ReceiverID)
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return err
		}
		return tx.GetContext(ctx, &out, insertMessageQuery,
			msg.ID, msg.ItemID, msg.SenderID, msg.ReceiverID, msg.Content)
	})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить сообщение")
	}
	msg.Seq = out.Seq
	msg.CreatedAt = out.CreatedAt
	return nil
}

func (r *MessageRepositoryAdapter) FindByItemAndPair(ctx context.Context, itemID, userA, userB uuid.UUID) ([]*entity.Message, error) {
	query := `
		SELECT id, seq, item_id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE item_id = $1
		  AND ((sender_id = $2 AND receiver_id = $3) OR (sender_id = $3 AND receiver_id = $2))
		ORDER BY created_at ASC, seq ASC`

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, query, itemID, userA, userB); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить переписку")
	}

	result := make([]*entity.Message, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *MessageRepositoryAdapter) FindCounterparties(ctx context.Context, itemID, ownerID uuid.UUID) ([]*entity.ThreadSummary, error) {
	query := `
		SELECT counterparty_id, content, created_at FROM (
			SELECT DISTINCT ON (counterparty_id)
				CASE WHEN sender_id = $2 THEN receiver_id ELSE sender_id END AS counterparty_id,
				content, created_at, seq
			FROM messages
			WHERE item_id = $1 AND (sender_id = $2 OR receiver_id = $2)
			ORDER BY counterparty_id, created_at DESC, seq DESC
		) last
		ORDER BY created_at DESC, seq DESC`

	var rows []struct {
		CounterpartyID uuid.UUID `db:"counterparty_id"`
		Content        string    `db:"content"`
		CreatedAt      time.Time `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, itemID, ownerID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список переписок")
	}

	result := make([]*entity.ThreadSummary, len(rows))
	for i, row := range rows {
		result[i] = &entity.ThreadSummary{
			CounterpartyID:     row.CounterpartyID,
			LastMessagePreview: row.Content,
			LastMessageAt:      row.CreatedAt,
		}
	}
	return result, nil
}

type messageRow struct {
	ID         uuid.UUID `db:"id"`
	Seq        int64     `db:"seq"`
	ItemID     uuid.UUID `db:"item_id"`
	SenderID   uuid.UUID `db:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *messageRow) toEntity() *entity.Message {
	return &entity.Message{
		ID:         r.ID,
		Seq:        r.Seq,
		ItemID:     r.ItemID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Content:    r.Content,
		CreatedAt:  r.CreatedAt,
	}
}
