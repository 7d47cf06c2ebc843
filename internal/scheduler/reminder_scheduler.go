package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-gin-event-booking/internal/clock"
	"go-gin-event-booking/internal/service"
	"go-gin-event-booking/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("reminder scheduler already started")

// ReminderScheduler 依 cron 表達式定時呼叫 ReminderService.SendReminders。
// Start/Stop 由呼叫端持有，不是全域的背景 goroutine。
type ReminderScheduler struct {
	schedule cron.Schedule
	location *time.Location
	clock    clock.Clock
	reminder service.ReminderService

	// after 測試時可以替換，控制觸發時機
	after func(d time.Duration) (<-chan time.Time, func())

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running sync.Mutex
}

func NewReminderScheduler(expr string, location *time.Location, clk clock.Clock, reminder service.ReminderService) (*ReminderScheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse reminder cron %q: %w", expr, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &ReminderScheduler{
		schedule: schedule,
		location: location,
		clock:    clk,
		reminder: reminder,
		after:    newTimer,
	}, nil
}

func newTimer(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTimer(d)
	return t.C, func() { t.Stop() }
}

// Next 回傳 from 之後的下一次觸發時間（以設定的時區計算）
func (s *ReminderScheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from.In(s.location))
}

func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	return nil
}

// Stop 停止排程並等待正在執行的提醒結束
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce 立即執行一次提醒掃描，與排程觸發互斥
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.reminder.SendReminders(ctx, s.clock.Now())
}

func (s *ReminderScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	log := logger.WithComponent("scheduler")

	for {
		now := s.clock.Now()
		next := s.Next(now)
		wait := next.Sub(now)
		if wait < 0 {
			wait = 0
		}
		log.Debug("next reminder run", zap.Time("at", next))

		fire, stop := s.after(wait)
		select {
		case <-ctx.Done():
			stop()
			return
		case <-fire:
		}

		sent, err := s.RunOnce(ctx)
		if err != nil {
			log.Error("reminder run failed", zap.Error(err))
			continue
		}
		log.Info("reminder run completed", zap.Int("sent", sent))
	}
}
