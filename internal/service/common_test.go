package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/clock"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/repository"
	"go-gin-event-booking/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// recordingNotifier 記錄所有送出的通知，fail 為 true 時一律回傳錯誤
type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	fail bool
}

func (n *recordingNotifier) Send(ctx context.Context, msg model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) Sent() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.sent...)
}

func (n *recordingNotifier) SentTo(email string) []model.Notification {
	var out []model.Notification
	for _, msg := range n.Sent() {
		if msg.To == email {
			out = append(out, msg)
		}
	}
	return out
}

type testEnv struct {
	events   *repository.MemoryEventRepository
	users    *repository.MemoryUserRepository
	notifier *recordingNotifier
	service  service.EventService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		events:   repository.NewMemoryEventRepository(),
		users:    repository.NewMemoryUserRepository(),
		notifier: &recordingNotifier{},
	}
	env.service = service.NewEventService(env.events, env.users, cache.NewMemoryEventLocker(), env.notifier, clock.NewFixed(testNow))
	return env
}

// createTestUser 輔助函數：建立使用者並回傳 ID
func (env *testEnv) createTestUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	user, err := env.users.Create(context.Background(), &model.User{FirstName: "Test", LastName: "User", Email: email})
	require.NoError(t, err)
	return user.ID
}

// createTestEvent 輔助函數：直接寫入 repository，不觸發通知
func (env *testEnv) createTestEvent(t *testing.T, organizer uuid.UUID, tickets ...model.TicketType) *model.Event {
	t.Helper()
	event := &model.Event{
		ID:          uuid.New(),
		Title:       "Go Conference",
		Date:        time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Time:        "18:00",
		Venue:       "Taipei",
		Organizer:   organizer,
		TicketTypes: tickets,
		DiscountCodes: []model.DiscountCode{
			{Code: "SAVE20", DiscountPercentage: 20, ExpiryDate: testNow.Add(time.Hour)},
			{Code: "EXPIRED", DiscountPercentage: 50, ExpiryDate: testNow.Add(-time.Hour)},
		},
	}
	created, err := env.events.Create(context.Background(), event)
	require.NoError(t, err)
	return created
}
