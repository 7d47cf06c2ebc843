package service

import (
	"context"
	"time"

	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/notification"
	"go-gin-event-booking/internal/repository"
	"go-gin-event-booking/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reminderLeadDays 活動前幾天寄「倒數」提醒
const reminderLeadDays = 3

type ReminderService interface {
	// SendReminders 掃描全部活動，回傳這次實際送出的提醒數
	SendReminders(ctx context.Context, now time.Time) (int, error)
}

type ReminderServiceImpl struct {
	repo     repository.EventRepository
	users    repository.UserRepository
	notifier notification.Notifier
	ledger   cache.ReminderLedger
	location *time.Location
}

func NewReminderService(
	repo repository.EventRepository,
	users repository.UserRepository,
	notifier notification.Notifier,
	ledger cache.ReminderLedger,
	location *time.Location,
) ReminderService {
	if location == nil {
		location = time.UTC
	}
	return &ReminderServiceImpl{
		repo:     repo,
		users:    users,
		notifier: notifier,
		ledger:   ledger,
		location: location,
	}
}

func (s *ReminderServiceImpl) SendReminders(ctx context.Context, now time.Time) (int, error) {
	log := logger.WithComponent("reminder")

	events, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	today := calendarDay(now.In(s.location), s.location)
	sent := 0
	for _, event := range events {
		kind, ok := s.reminderKindFor(event, today)
		if !ok {
			continue
		}
		for _, attendee := range event.Attendees {
			if err := ctx.Err(); err != nil {
				return sent, err
			}
			if s.remind(ctx, event, attendee, kind, today) {
				sent++
			}
		}
	}

	log.Info("reminder run finished",
		zap.Time("today", today),
		zap.Int("events", len(events)),
		zap.Int("sent", sent),
	)
	return sent, nil
}

// reminderKindFor 依日曆日判斷今天要寄哪種提醒
func (s *ReminderServiceImpl) reminderKindFor(event *model.Event, today time.Time) (cache.ReminderKind, bool) {
	// 活動日期存的是 UTC 零點，這裡取年月日放到設定的時區再比較
	eventDay := calendarDay(event.Date.UTC(), s.location)
	switch {
	case today.Equal(eventDay.AddDate(0, 0, -reminderLeadDays)):
		return cache.ReminderThreeDaysBefore, true
	case today.Equal(eventDay):
		return cache.ReminderEventDay, true
	default:
		return "", false
	}
}

// remind 寄一封提醒；任何失敗只記錄 log，不影響其他出席者
func (s *ReminderServiceImpl) remind(ctx context.Context, event *model.Event, attendee uuid.UUID, kind cache.ReminderKind, today time.Time) bool {
	log := logger.WithComponent("reminder").With(
		zap.String("event_id", event.ID.String()),
		zap.String("attendee", attendee.String()),
		zap.String("kind", string(kind)),
	)

	first, err := s.ledger.MarkSent(ctx, event.ID, attendee, kind, today)
	if err != nil {
		log.Error("reminder ledger unavailable, skipping", zap.Error(err))
		return false
	}
	if !first {
		log.Debug("reminder already sent today")
		return false
	}

	user, err := s.users.FindByID(ctx, attendee)
	if err != nil {
		log.Warn("resolve reminder recipient failed", zap.Error(err))
		return false
	}

	var n model.Notification
	if kind == cache.ReminderThreeDaysBefore {
		n = notification.ReminderThreeDaysLeft(user.Email, event.Title)
	} else {
		n = notification.ReminderToday(user.Email, event.Title)
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Error("send reminder failed", zap.Error(err))
		return false
	}
	return true
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
