package cache_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-booking/internal/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLedger(t *testing.T) {
	_, rdb := newTestRedis(t)

	ledgers := map[string]cache.ReminderLedger{
		"Memory": cache.NewMemoryReminderLedger(),
		"Redis":  cache.NewRedisReminderLedger(rdb, time.Hour),
	}

	for name, ledger := range ledgers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			eventID, attendee := uuid.New(), uuid.New()
			today := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

			first, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderThreeDaysBefore, today)
			require.NoError(t, err)
			assert.True(t, first)

			again, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderThreeDaysBefore, today)
			require.NoError(t, err)
			assert.False(t, again)

			// 不同種類、不同日期、不同出席者都各自獨立
			other, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderEventDay, today)
			require.NoError(t, err)
			assert.True(t, other)

			other, err = ledger.MarkSent(ctx, eventID, attendee, cache.ReminderThreeDaysBefore, today.AddDate(0, 0, 1))
			require.NoError(t, err)
			assert.True(t, other)

			other, err = ledger.MarkSent(ctx, eventID, uuid.New(), cache.ReminderThreeDaysBefore, today)
			require.NoError(t, err)
			assert.True(t, other)
		})
	}
}

func TestRedisReminderLedger_Expires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ledger := cache.NewRedisReminderLedger(rdb, time.Hour)
	ctx := context.Background()
	eventID, attendee := uuid.New(), uuid.New()
	today := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderEventDay, today)
	require.NoError(t, err)
	require.True(t, first)

	mr.FastForward(2 * time.Hour)

	again, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderEventDay, today)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestMemoryReminderLedger_DropsOldEntries(t *testing.T) {
	ctx := context.Background()
	ledger := cache.NewMemoryReminderLedger()
	eventID, attendee := uuid.New(), uuid.New()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		ok, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderEventDay, start.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.True(t, ok)
	}

	// 只保留最近四天加當天
	assert.Equal(t, 5, ledger.Len())

	// 仍在保留期內的紀錄不會重複寄送
	again, err := ledger.MarkSent(ctx, eventID, attendee, cache.ReminderEventDay, start.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.False(t, again)
}
