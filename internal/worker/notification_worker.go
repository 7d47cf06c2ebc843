package worker

import (
	"context"
	"errors"
	"go-gin-event-booking/internal/notification"
	"go-gin-event-booking/internal/queue"
	"go-gin-event-booking/pkg/logger"
	"sync"

	"go.uber.org/zap"
)

type NotificationWorker interface {
	// 訂閱通知隊列，ctx 取消後停止
	Start(ctx context.Context) error
	// 等待正在處理的通知結束
	Wait()
}

type NotificationWorkerImpl struct {
	sink  notification.Notifier
	queue queue.NotificationQueue
	wg    sync.WaitGroup
}

// NewNotificationWorker sink 是真正送出通知的出口（SMTP 或 log）
func NewNotificationWorker(sink notification.Notifier, queue queue.NotificationQueue) NotificationWorker {
	return &NotificationWorkerImpl{
		sink:  sink,
		queue: queue,
	}
}

func (w *NotificationWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	log := logger.WithComponent("notification_worker")
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range msgs {
			n := msg.Data
			if err := w.sink.Send(ctx, *n); err != nil {
				// 送不出去就留給隊列重試，不影響已完成的業務操作
				log.Error("deliver notification failed",
					zap.String("to", n.To),
					zap.String("subject", n.Subject),
					zap.Error(err),
				)
				msg.Nack(!errors.Is(err, notification.ErrMissingRecipient))
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}

func (w *NotificationWorkerImpl) Wait() {
	w.wg.Wait()
}
