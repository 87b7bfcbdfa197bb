package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

const userColumns = `id, username, display_name, password_hash, reputation, created_at, updated_at`

type UserRepositoryAdapter struct {
	db *sqlx.DB
}

func NewUserRepositoryAdapter(db *sqlx.DB) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{db: db}
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.DisplayName, user.PasswordHash, user.Reputation, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrUsernameTaken
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать пользователя")
	}
	return nil
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepositoryAdapter) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepositoryAdapter) findOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

func (r *UserRepositoryAdapter) AddReputation(ctx context.Context, id uuid.UUID, amount int) (int, error) {
	query := `UPDATE users SET reputation = reputation + $2, updated_at = NOW() WHERE id = $1 RETURNING reputation`

	var reputation int
	if err := r.db.GetContext(ctx, &reputation, query, id, amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperror.ErrUserNotFound
		}
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить репутацию")
	}
	return reputation, nil
}

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	DisplayName  string    `db:"display_name"`
	PasswordHash string    `db:"password_hash"`
	Reputation   int       `db:"reputation"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           r.ID,
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		Reputation:   r.Reputation,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type RegistrationCodeRepositoryAdapter struct {
	db *sqlx.DB
}

func NewRegistrationCodeRepositoryAdapter(db *sqlx.DB) *RegistrationCodeRepositoryAdapter {
	return &RegistrationCodeRepositoryAdapter{db: db}
}

func (r *RegistrationCodeRepositoryAdapter) Create(ctx context.Context, code *entity.RegistrationCode) error {
	query := `
		INSERT INTO registration_codes (id, username, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		code.ID, code.Username, code.Code, code.ExpiresAt, code.Used, code.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить код подтверждения")
	}
	return nil
}

// Consume атомарно гасит самый свежий действующий код.
func (r *RegistrationCodeRepositoryAdapter) Consume(ctx context.Context, username, code string, now time.Time) (bool, error) {
	query := `
		UPDATE registration_codes SET used = TRUE
		WHERE id = (
			SELECT id FROM registration_codes
			WHERE username = $1 AND code = $2 AND used = FALSE AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`

	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query, username, code, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить код подтверждения")
	}
	return true, nil
}
