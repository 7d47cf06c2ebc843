package notification

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"go-gin-event-booking/config"
	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/queue"

	"go.uber.org/zap"
)

// ErrMissingRecipient 收件者為空
var ErrMissingRecipient = errors.New("notification recipient is empty")

// Notifier 通知出口（Notification Sink），只負責送出，不保證送達
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// SMTPNotifier 透過 SMTP 寄信
type SMTPNotifier struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		host:     cfg.Host,
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPNotifier) Send(ctx context.Context, n model.Notification) error {
	if strings.TrimSpace(n.To) == "" {
		return ErrMissingRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.sendMail(s.addr, s.auth, s.from, []string{n.To}, buildMessage(s.from, n)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", n.To, err)
	}
	return nil
}

func buildMessage(from string, n model.Notification) []byte {
	var b strings.Builder
	b.WriteString("From: " + headerValue(from) + "\r\n")
	b.WriteString("To: " + headerValue(n.To) + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", headerValue(n.Subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(n.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// headerValue 去掉 CR/LF，避免值被拆成額外的標頭
func headerValue(v string) string {
	return strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// LogNotifier 沒有設定 SMTP 時使用，只寫 log
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Send(ctx context.Context, n model.Notification) error {
	if strings.TrimSpace(n.To) == "" {
		return ErrMissingRecipient
	}
	l.log.Info("notification sent",
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return nil
}

// QueueNotifier 把通知丟進佇列，由 NotificationWorker 非同步送出
type QueueNotifier struct {
	queue queue.NotificationQueue
}

func NewQueueNotifier(q queue.NotificationQueue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

func (q *QueueNotifier) Send(ctx context.Context, n model.Notification) error {
	if strings.TrimSpace(n.To) == "" {
		return ErrMissingRecipient
	}
	return q.queue.Publish(ctx, &n)
}
