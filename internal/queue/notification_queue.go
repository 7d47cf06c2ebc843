package queue

import (
	"context"
	"errors"
	"go-gin-event-booking/internal/model"
)

// ErrQueueFull 記憶體佇列已滿，通知直接丟棄（best-effort）
var ErrQueueFull = errors.New("notification queue is full")

type Delivery struct {
	Data *model.Notification
	Ack  func()
	Nack func(requeue bool)
}

type NotificationQueue interface {
	// 發送通知到隊列
	Publish(ctx context.Context, notification *model.Notification) error
	// 訂閱通知隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

// maxMemoryAttempts 記憶體版最多重送次數，超過就丟棄
const maxMemoryAttempts = 3

type envelope struct {
	notification *model.Notification
	attempts     int
}

type NotificationQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan envelope
}

func NewNotificationQueue(bufferSize int) NotificationQueue {
	return &NotificationQueueImpl{
		ch: make(chan envelope, bufferSize),
	}
}

// Publish 不阻塞呼叫端：佇列滿時回傳 ErrQueueFull
func (q *NotificationQueueImpl) Publish(ctx context.Context, notification *model.Notification) error {
	select {
	case q.ch <- envelope{notification: notification}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *NotificationQueueImpl) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-q.ch:
				if !ok {
					return
				}

				env.attempts++
				d := Delivery{
					Data: env.notification,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if !requeue || env.attempts >= maxMemoryAttempts {
							return
						}
						// 簡單模擬重回隊列，滿了就放棄
						select {
						case q.ch <- env:
						default:
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
