package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLedger struct{}

func (failingLedger) MarkSent(ctx context.Context, eventID, attendeeID uuid.UUID, kind cache.ReminderKind, day time.Time) (bool, error) {
	return false, errors.New("redis down")
}

func (env *testEnv) createEventOn(t *testing.T, title string, date time.Time, attendees ...uuid.UUID) *model.Event {
	t.Helper()
	created, err := env.events.Create(context.Background(), &model.Event{
		ID:        uuid.New(),
		Title:     title,
		Date:      date,
		Organizer: uuid.New(),
		Attendees: attendees,
	})
	require.NoError(t, err)
	return created
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestReminderService_SendReminders(t *testing.T) {
	ctx := context.Background()

	t.Run("ThreeDaysLeftAndToday", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createTestUser(t, "alice@example.com")
		bob := env.createTestUser(t, "bob@example.com")
		env.createTestUser(t, "carol@example.com")

		env.createEventOn(t, "Soon", day(2026, 5, 4), alice)
		env.createEventOn(t, "Now", day(2026, 5, 1), bob)
		env.createEventOn(t, "Tomorrow", day(2026, 5, 2), alice, bob)

		reminders := service.NewReminderService(env.events, env.users, env.notifier, cache.NewMemoryReminderLedger(), time.UTC)
		sent, err := reminders.SendReminders(ctx, testNow)

		require.NoError(t, err)
		assert.Equal(t, 2, sent)

		aliceMsgs := env.notifier.SentTo("alice@example.com")
		require.Len(t, aliceMsgs, 1)
		assert.Equal(t, "Event Reminder", aliceMsgs[0].Subject)
		assert.Equal(t, "Reminder: Your event Soon is happening in 3 days!", aliceMsgs[0].Body)

		bobMsgs := env.notifier.SentTo("bob@example.com")
		require.Len(t, bobMsgs, 1)
		assert.Equal(t, "Reminder: Your event Now is happening today!", bobMsgs[0].Body)

		assert.Empty(t, env.notifier.SentTo("carol@example.com"))
	})

	t.Run("SecondRunSameDayIsNoop", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createTestUser(t, "alice@example.com")
		env.createEventOn(t, "Soon", day(2026, 5, 4), alice)

		reminders := service.NewReminderService(env.events, env.users, env.notifier, cache.NewMemoryReminderLedger(), time.UTC)
		first, err := reminders.SendReminders(ctx, testNow)
		require.NoError(t, err)
		second, err := reminders.SendReminders(ctx, testNow.Add(2*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		assert.Len(t, env.notifier.SentTo("alice@example.com"), 1)
	})

	t.Run("UnknownAttendeeDoesNotAbortOthers", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createTestUser(t, "alice@example.com")
		env.createEventOn(t, "Soon", day(2026, 5, 4), uuid.New(), alice)

		reminders := service.NewReminderService(env.events, env.users, env.notifier, cache.NewMemoryReminderLedger(), time.UTC)
		sent, err := reminders.SendReminders(ctx, testNow)

		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, env.notifier.SentTo("alice@example.com"), 1)
	})

	t.Run("NotifierFailureIsSwallowed", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.fail = true
		alice := env.createTestUser(t, "alice@example.com")
		env.createEventOn(t, "Soon", day(2026, 5, 4), alice)

		reminders := service.NewReminderService(env.events, env.users, env.notifier, cache.NewMemoryReminderLedger(), time.UTC)
		sent, err := reminders.SendReminders(ctx, testNow)

		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	})

	t.Run("LedgerFailureSkipsInsteadOfDuplicating", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createTestUser(t, "alice@example.com")
		env.createEventOn(t, "Soon", day(2026, 5, 4), alice)

		reminders := service.NewReminderService(env.events, env.users, env.notifier, failingLedger{}, time.UTC)
		sent, err := reminders.SendReminders(ctx, testNow)

		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.Empty(t, env.notifier.Sent())
	})

	t.Run("UsesConfiguredLocation", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.createTestUser(t, "alice@example.com")
		env.createEventOn(t, "Soon", day(2026, 5, 4), alice)

		// UTC 4/30 20:00 在 UTC+8 已經是 5/1
		taipei := time.FixedZone("UTC+8", 8*60*60)
		reminders := service.NewReminderService(env.events, env.users, env.notifier, cache.NewMemoryReminderLedger(), taipei)
		sent, err := reminders.SendReminders(ctx, time.Date(2026, 4, 30, 20, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})
}
