package queue_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// testStreamConfig 縮短阻塞時間，XAUTOCLAIM 設長一點避免干擾
func testStreamConfig() *queue.RedisStreamQueueConfig {
	return &queue.RedisStreamQueueConfig{
		ClaimMinIdleTime:   time.Hour,
		ReadGroupBlockTime: 50 * time.Millisecond,
	}
}

func TestNewRedisStreamNotificationQueue(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	t.Run("success", func(t *testing.T) {
		q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "test-consumer", nil)
		require.NoError(t, err)
		require.NotNil(t, q)
	})

	t.Run("existing_group_is_reused", func(t *testing.T) {
		q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "", nil)
		require.NoError(t, err)
		require.NotNil(t, q)
	})
}

func TestRedisStreamNotificationQueue_Subscribe_deliversPublishedMessage(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "deliver-test", testStreamConfig())
	require.NoError(t, err)

	n := &model.Notification{To: "alice@example.com", Subject: "Ticket Booked", Body: "You have successfully booked a ticket"}
	require.NoError(t, q.Publish(ctx, n))

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	d := receive(t, ch)
	require.NotNil(t, d.Data)
	assert.Equal(t, *n, *d.Data)
	d.Ack()

	pending, err := rdb.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestRedisStreamNotificationQueue_NackRequeue_keepsMessagePending(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "nack-test", testStreamConfig())
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, &model.Notification{To: "bob@example.com", Subject: "Event Reminder"}))

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	receive(t, ch).Nack(true)

	pending, err := rdb.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestRedisStreamNotificationQueue_MalformedMessageIsAcked(t *testing.T) {
	ctx := context.Background()
	rdb := newTestRedis(t)

	q, err := queue.NewRedisStreamNotificationQueue(ctx, rdb, "malformed-test", testStreamConfig())
	require.NoError(t, err)

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: queue.StreamKey,
		Values: map[string]interface{}{"notification": "{not json"},
	}).Err())
	good := &model.Notification{To: "carol@example.com", Subject: "Event Updated"}
	require.NoError(t, q.Publish(ctx, good))

	subCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ch, err := q.Subscribe(subCtx)
	require.NoError(t, err)

	// 格式錯誤的訊息被跳過，只收到正常的那一筆
	d := receive(t, ch)
	assert.Equal(t, good.To, d.Data.To)
	d.Ack()

	pending, err := rdb.XPending(ctx, queue.StreamKey, queue.ConsumerGroupName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}
