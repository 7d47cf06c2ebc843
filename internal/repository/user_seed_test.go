package repository_test

import (
	"context"
	"testing"

	"go-gin-event-booking/internal/repository"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeedUsers(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	users, err := repository.ParseSeedUsers(alice.String() + "=alice@example.com, " + bob.String() + " = bob@example.com,")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice, users[0].ID)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.Equal(t, bob, users[1].ID)
	assert.Equal(t, "bob@example.com", users[1].Email)

	users, err = repository.ParseSeedUsers("")
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = repository.ParseSeedUsers("not-a-uuid=alice@example.com")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = repository.ParseSeedUsers(alice.String())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSeedUsers_MemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	organizer := uuid.New()

	users, err := repository.ParseSeedUsers(organizer.String() + "=organizer@example.com")
	require.NoError(t, err)
	require.NoError(t, repository.SeedUsers(ctx, repo, users))

	found, err := repo.FindByID(ctx, organizer)
	require.NoError(t, err)
	assert.Equal(t, "organizer@example.com", found.Email)
}
