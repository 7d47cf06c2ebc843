package service

import (
	"context"
	"errors"
	"strings"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/clock"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/notification"
	"go-gin-event-booking/internal/repository"
	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxUpdateAttempts 版本衝突時最多重讀重寫幾次
const maxUpdateAttempts = 5

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkAttended 加入出席名單，重複時回傳 ErrAlreadyAttending
	MarkAttended(ctx context.Context, id uuid.UUID, attendee uuid.UUID) (*model.Event, error)
	AddFeedback(ctx context.Context, id uuid.UUID, feedback model.Feedback) (*model.Event, error)
	AddDiscountCode(ctx context.Context, id uuid.UUID, code model.DiscountCode) (*model.Event, error)
	// BookTicket 訂票並回傳折扣後的最終價格
	BookTicket(ctx context.Context, id uuid.UUID, attendee uuid.UUID, ticketType string, discountCode string) (float64, error)
}

type EventServiceImpl struct {
	repo     repository.EventRepository
	users    repository.UserRepository
	locker   cache.EventLocker
	notifier notification.Notifier
	clock    clock.Clock
}

func NewEventService(
	repo repository.EventRepository,
	users repository.UserRepository,
	locker cache.EventLocker,
	notifier notification.Notifier,
	clk clock.Clock,
) EventService {
	return &EventServiceImpl{
		repo:     repo,
		users:    users,
		locker:   locker,
		notifier: notifier,
		clock:    clk,
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EventServiceImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, created.Organizer, func(email string) model.Notification {
		return notification.EventCreated(email, created.Title)
	})
	return created, nil
}

func (s *EventServiceImpl) Update(ctx context.Context, id uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	if params.IsEmpty() {
		return nil, apperrors.ErrInvalidInput
	}
	if params.Title != nil {
		if err := model.ValidateTitle(*params.Title); err != nil {
			return nil, err
		}
	}

	updated, err := s.mutate(ctx, id, func(event *model.Event) error {
		event.Apply(params)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, updated.Organizer, func(email string) model.Notification {
		return notification.EventUpdated(email, updated.Title)
	})
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	unlock()
	if err != nil {
		return err
	}

	s.notifyUser(ctx, deleted.Organizer, func(email string) model.Notification {
		return notification.EventDeleted(email, deleted.Title)
	})
	return nil
}

func (s *EventServiceImpl) MarkAttended(ctx context.Context, id uuid.UUID, attendee uuid.UUID) (*model.Event, error) {
	updated, err := s.mutate(ctx, id, func(event *model.Event) error {
		return event.AddAttendee(attendee)
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, attendee, func(email string) model.Notification {
		return notification.AttendanceMarked(email, updated.Title)
	})
	return updated, nil
}

func (s *EventServiceImpl) AddFeedback(ctx context.Context, id uuid.UUID, feedback model.Feedback) (*model.Event, error) {
	// 先檢查留言，空留言不需要讀取活動
	if strings.TrimSpace(feedback.Comment) == "" {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrCommentRequired
	}
	feedback.CreatedAt = s.clock.Now()

	updated, err := s.mutate(ctx, id, func(event *model.Event) error {
		return event.AddFeedback(feedback)
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, feedback.Attendee, func(email string) model.Notification {
		return notification.FeedbackReceived(email, updated.Title)
	})
	return updated, nil
}

func (s *EventServiceImpl) AddDiscountCode(ctx context.Context, id uuid.UUID, code model.DiscountCode) (*model.Event, error) {
	updated, err := s.mutate(ctx, id, func(event *model.Event) error {
		return event.AddDiscountCode(code)
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, updated.Organizer, func(email string) model.Notification {
		return notification.DiscountCodeAdded(email, updated.Title)
	})
	return updated, nil
}

func (s *EventServiceImpl) BookTicket(ctx context.Context, id uuid.UUID, attendee uuid.UUID, ticketType string, discountCode string) (float64, error) {
	var finalPrice float64
	updated, err := s.mutate(ctx, id, func(event *model.Event) error {
		price, err := event.Book(attendee, ticketType, discountCode, s.clock.Now())
		if err != nil {
			return err
		}
		finalPrice = price
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.WithComponent("service").Info("ticket booked",
		zap.String("event_id", id.String()),
		zap.String("attendee", attendee.String()),
		zap.String("ticket_type", ticketType),
		zap.Float64("final_price", finalPrice),
	)

	s.notifyUser(ctx, attendee, func(email string) model.Notification {
		return notification.TicketBooked(email, updated.Title)
	})
	return finalPrice, nil
}

// mutate 在 event lock 內讀取 → 修改 → 以版本檢查寫回。
// 其他 instance 先寫入造成版本衝突時重新讀取再套用一次 fn。
func (s *EventServiceImpl) mutate(ctx context.Context, id uuid.UUID, fn func(event *model.Event) error) (*model.Event, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; ; attempt++ {
		event, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(event); err != nil {
			return nil, err
		}

		updated, err := s.repo.Update(ctx, event)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, apperrors.ErrVersionConflict) || attempt >= maxUpdateAttempts {
			return nil, err
		}
		logger.WithComponent("service").Warn("version conflict, retrying",
			zap.String("event_id", id.String()),
			zap.Int("attempt", attempt),
		)
	}
}

// notifyUser 在資料寫入成功後才呼叫；找不到使用者或送出失敗只記錄 log，不回傳錯誤
func (s *EventServiceImpl) notifyUser(ctx context.Context, userID uuid.UUID, build func(email string) model.Notification) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithComponent("service").With(zap.String("user_id", userID.String()))

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		log.Warn("resolve notification recipient failed", zap.Error(err))
		return
	}

	n := build(user.Email)
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Error("send notification failed",
			zap.String("to", n.To),
			zap.String("subject", n.Subject),
			zap.Error(err),
		)
	}
}
