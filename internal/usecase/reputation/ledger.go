package reputation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/logger"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// Ledger начисляет очки репутации. Идемпотентность обеспечивает вызывающий код.
type Ledger struct {
	userRepo repository.UserRepository
}

func NewLedger(userRepo repository.UserRepository) *Ledger {
	return &Ledger{userRepo: userRepo}
}

// Credit атомарно увеличивает репутацию пользователя на amount.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "начисление должно быть положительным")
	}

	score, err := l.userRepo.AddReputation(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"score":   score,
	}).Info("reputation credited")
	return score, nil
}

// Reputation возвращает текущий счёт пользователя.
func (l *Ledger) Reputation(ctx context.Context, userID uuid.UUID) (int, error) {
	user, err := l.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Reputation, nil
}
