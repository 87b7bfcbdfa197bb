package reputation

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/domain/entity"
	"github.com/ignatzorin/lostfound-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

func newUser(t *testing.T, repo *memory.UserRepository) *entity.User {
	t.Helper()
	u, err := entity.NewUser("keeper@gmail.com", "", "hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLedger_Credit(t *testing.T) {
	repo := memory.NewUserRepository()
	user := newUser(t, repo)
	ledger := NewLedger(repo)

	score, err := ledger.Credit(context.Background(), user.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, score)

	score, err = ledger.Reputation(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, score)
}

func TestLedger_RejectsNonPositive(t *testing.T) {
	repo := memory.NewUserRepository()
	user := newUser(t, repo)
	ledger := NewLedger(repo)

	for _, amount := range []int{0, -5} {
		_, err := ledger.Credit(context.Background(), user.ID, amount)
		assert.True(t, apperror.IsValidation(err))
	}

	score, err := ledger.Reputation(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestLedger_UnknownUser(t *testing.T) {
	ledger := NewLedger(memory.NewUserRepository())

	_, err := ledger.Credit(context.Background(), uuid.New(), 10)
	assert.True(t, apperror.IsNotFound(err))
}

func TestLedger_ConcurrentCreditsAreNotLost(t *testing.T) {
	repo := memory.NewUserRepository()
	user := newUser(t, repo)
	ledger := NewLedger(repo)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ledger.Credit(context.Background(), user.ID, 10)
		}()
	}
	wg.Wait()

	score, err := ledger.Reputation(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, score)
}
