package repository_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-booking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventRepository(t *testing.T) {
	runEventRepositoryContract(t, func(t *testing.T) repository.EventRepository {
		return repository.NewMemoryEventRepository()
	})
}

func TestMemoryUserRepository(t *testing.T) {
	runUserRepositoryContract(t, func(t *testing.T) repository.UserRepository {
		return repository.NewMemoryUserRepository()
	})
}

func TestMemoryEventRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryEventRepository()
	created, err := repo.Create(ctx, newContractEvent("Go Conference", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	// 修改回傳值不影響 store 內的資料
	created.TicketTypes[0].Quantity = 0
	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.TicketTypes[0].Quantity)
}
