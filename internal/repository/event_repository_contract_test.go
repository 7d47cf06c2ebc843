package repository_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/repository"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContractEvent(title string, date time.Time) *model.Event {
	return &model.Event{
		ID:          uuid.New(),
		Title:       title,
		Description: "desc",
		Date:        date,
		Time:        "18:00",
		Venue:       "Taipei",
		Organizer:   uuid.New(),
		TicketTypes: []model.TicketType{{Type: "VIP", Price: 100, Quantity: 2}},
		DiscountCodes: []model.DiscountCode{
			{Code: "SAVE20", DiscountPercentage: 20, ExpiryDate: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)},
		},
	}
}

// runEventRepositoryContract 所有 Event Store 後端共用的行為測試
func runEventRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.EventRepository) {
	ctx := context.Background()

	t.Run("CreateAndFind", func(t *testing.T) {
		repo := newRepo(t)
		event := newContractEvent("Go Conference", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

		created, err := repo.Create(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)
		assert.NotZero(t, created.CreatedAt)

		found, err := repo.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go Conference", found.Title)
		assert.True(t, found.Date.Equal(event.Date))
		assert.Equal(t, event.Organizer, found.Organizer)
		assert.Equal(t, event.TicketTypes, found.TicketTypes)
		require.Len(t, found.DiscountCodes, 1)
		assert.True(t, found.DiscountCodes[0].ExpiryDate.Equal(event.DiscountCodes[0].ExpiryDate))
		assert.NotNil(t, found.Attendees)
		assert.NotNil(t, found.Feedback)
	})

	t.Run("FindNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("ListOrderedByDate", func(t *testing.T) {
		repo := newRepo(t)
		later := newContractEvent("Later", time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
		sooner := newContractEvent("Sooner", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		_, err := repo.Create(ctx, later)
		require.NoError(t, err)
		_, err = repo.Create(ctx, sooner)
		require.NoError(t, err)

		events, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "Sooner", events[0].Title)
		assert.Equal(t, "Later", events[1].Title)
	})

	t.Run("UpdateBumpsVersion", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, newContractEvent("Go Conference", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		attendee := uuid.New()
		_, err = created.Book(attendee, "VIP", "", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		created.Feedback = append(created.Feedback, model.Feedback{Attendee: attendee, Rating: 4, Comment: "nice", CreatedAt: time.Now().UTC().Truncate(time.Millisecond)})

		updated, err := repo.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), found.Version)
		assert.Equal(t, 1, found.TicketTypes[0].Quantity)
		assert.Equal(t, 1, found.TicketTypes[0].Sold)
		assert.Equal(t, []uuid.UUID{attendee}, found.Attendees)
		require.Len(t, found.Feedback, 1)
		assert.Equal(t, "nice", found.Feedback[0].Comment)
	})

	t.Run("UpdateStaleVersion", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, newContractEvent("Go Conference", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		stale := created.Clone()
		_, err = repo.Update(ctx, created)
		require.NoError(t, err)

		stale.Title = "Stale write"
		_, err = repo.Update(ctx, stale)
		assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Go Conference", found.Title)
	})

	t.Run("UpdateNotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(ctx, newContractEvent("Ghost", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		created, err := repo.Create(ctx, newContractEvent("Go Conference", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Organizer, deleted.Organizer)

		_, err = repo.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})
}

// runUserRepositoryContract 使用者 repository 共用測試
func runUserRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.UserRepository) {
	ctx := context.Background()

	t.Run("CreateAndFind", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, &model.User{FirstName: "Alice", LastName: "Wang", Email: "alice@example.com"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", found.Email)
		assert.Equal(t, "Alice", found.FirstName)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, uuid.New())

		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
