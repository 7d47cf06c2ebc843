package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-gin-event-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockTimeout 等待 event lock 逾時
var ErrLockTimeout = errors.New("timed out waiting for event lock")

// EventLocker 同一個 Event 的修改一次只允許一個 writer
type EventLocker interface {
	// Lock 取得鎖，回傳的 unlock 必須呼叫且只呼叫一次
	Lock(ctx context.Context, eventID uuid.UUID) (unlock func(), err error)
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// MemoryEventLocker 單一行程內的 keyed mutex，支援 context 取消
type MemoryEventLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

func NewMemoryEventLocker() *MemoryEventLocker {
	return &MemoryEventLocker{
		entries: make(map[uuid.UUID]*lockEntry),
	}
}

func (l *MemoryEventLocker) Lock(ctx context.Context, eventID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[eventID]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[eventID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(eventID, entry)
		return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(eventID, entry)
		})
	}, nil
}

func (l *MemoryEventLocker) release(eventID uuid.UUID, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, eventID)
	}
}

// RedisEventLockerConfig nil 或零值時使用預設
type RedisEventLockerConfig struct {
	TTL           time.Duration // 鎖的存活時間，避免持有者掛掉後永遠鎖住
	RetryInterval time.Duration // 取鎖失敗後的重試間隔
	WaitTimeout   time.Duration // 最長等待時間
}

func defaultRedisEventLockerConfig() RedisEventLockerConfig {
	return RedisEventLockerConfig{
		TTL:           5 * time.Second,
		RetryInterval: 10 * time.Millisecond,
		WaitTimeout:   3 * time.Second,
	}
}

// RedisEventLocker 跨 instance 的 event lock：SET NX PX 取鎖，Lua 比對 token 後釋放
type RedisEventLocker struct {
	client *redis.Client
	cfg    RedisEventLockerConfig
}

func NewRedisEventLocker(client *redis.Client, config *RedisEventLockerConfig) *RedisEventLocker {
	cfg := defaultRedisEventLockerConfig()
	if config != nil {
		if config.TTL > 0 {
			cfg.TTL = config.TTL
		}
		if config.RetryInterval > 0 {
			cfg.RetryInterval = config.RetryInterval
		}
		if config.WaitTimeout > 0 {
			cfg.WaitTimeout = config.WaitTimeout
		}
	}
	return &RedisEventLocker{client: client, cfg: cfg}
}

func (l *RedisEventLocker) getLockKey(eventID uuid.UUID) string {
	return fmt.Sprintf("event:%s:lock", eventID)
}

// 只刪除自己持有的鎖，避免 TTL 過期後誤刪別人的鎖
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

func (l *RedisEventLocker) Lock(ctx context.Context, eventID uuid.UUID) (func(), error) {
	key := l.getLockKey(eventID)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("acquire event lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(l.cfg.RetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 請求的 ctx 可能已取消，釋放鎖一定要執行
			if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
				logger.WithComponent("locker").Error("release event lock failed",
					zap.String("event_id", eventID.String()), zap.Error(err))
			}
		})
	}, nil
}
