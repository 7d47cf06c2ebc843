package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ReminderKind 提醒類型
type ReminderKind string

const (
	ReminderThreeDaysBefore ReminderKind = "three_days_before"
	ReminderEventDay        ReminderKind = "event_day"
)

// ReminderLedger 紀錄某天某活動對某位出席者已寄過哪種提醒。
// MarkSent 第一次紀錄時回傳 true，已存在則回傳 false。
type ReminderLedger interface {
	MarkSent(ctx context.Context, eventID, attendeeID uuid.UUID, kind ReminderKind, day time.Time) (bool, error)
}

func reminderKey(eventID, attendeeID uuid.UUID, kind ReminderKind, day time.Time) string {
	return fmt.Sprintf("reminder:%s:%s:%s:%s", eventID, attendeeID, kind, day.Format("2006-01-02"))
}

type RedisReminderLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisReminderLedger(client *redis.Client, ttl time.Duration) *RedisReminderLedger {
	return &RedisReminderLedger{client: client, ttl: ttl}
}

func (l *RedisReminderLedger) MarkSent(ctx context.Context, eventID, attendeeID uuid.UUID, kind ReminderKind, day time.Time) (bool, error) {
	return l.client.SetNX(ctx, reminderKey(eventID, attendeeID, kind, day), 1, l.ttl).Result()
}

// memoryLedgerRetention 與 Redis 預設 TTL（96h）一致
const memoryLedgerRetention = 4 * 24 * time.Hour

// MemoryReminderLedger 單一行程用，重啟後紀錄會消失。
// 每次 MarkSent 會清掉比 day 早超過 retention 的紀錄。
type MemoryReminderLedger struct {
	mu   sync.Mutex
	sent map[string]time.Time
}

func NewMemoryReminderLedger() *MemoryReminderLedger {
	return &MemoryReminderLedger{sent: make(map[string]time.Time)}
}

// Len 目前保留的紀錄數
func (l *MemoryReminderLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

func (l *MemoryReminderLedger) MarkSent(ctx context.Context, eventID, attendeeID uuid.UUID, kind ReminderKind, day time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := day.Add(-memoryLedgerRetention)
	for k, d := range l.sent {
		if d.Before(cutoff) {
			delete(l.sent, k)
		}
	}

	key := reminderKey(eventID, attendeeID, kind, day)
	if _, ok := l.sent[key]; ok {
		return false, nil
	}
	l.sent[key] = day
	return true, nil
}
