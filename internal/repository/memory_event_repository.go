package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
)

// MemoryEventRepository 行程內的 Event Store，讀寫都做深拷貝，語意與 Postgres 版相同（含版本檢查）
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*model.Event
}

func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[uuid.UUID]*model.Event),
	}
}

func (r *MemoryEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := event.Clone()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Normalize()
	r.events[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *MemoryEventRepository) List(ctx context.Context) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*model.Event, 0, len(r.events))
	for _, e := range r.events {
		c := e.Clone()
		c.Normalize()
		events = append(events, c)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (r *MemoryEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	c := e.Clone()
	c.Normalize()
	return c, nil
}

func (r *MemoryEventRepository) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.events[event.ID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if current.Version != event.Version {
		return nil, apperrors.ErrVersionConflict
	}

	stored := event.Clone()
	stored.Version = current.Version + 1
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	stored.Normalize()
	r.events[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *MemoryEventRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	delete(r.events, id)
	c := e.Clone()
	c.Normalize()
	return c, nil
}
