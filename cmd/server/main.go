package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-event-booking/config"
	"go-gin-event-booking/internal/cache"
	"go-gin-event-booking/internal/clock"
	"go-gin-event-booking/internal/database"
	"go-gin-event-booking/internal/database/migrations"
	"go-gin-event-booking/internal/handler"
	"go-gin-event-booking/internal/notification"
	"go-gin-event-booking/internal/queue"
	"go-gin-event-booking/internal/repository"
	"go-gin-event-booking/internal/scheduler"
	"go-gin-event-booking/internal/service"
	"go-gin-event-booking/internal/worker"
	"go-gin-event-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stores struct {
	events repository.EventRepository
	users  repository.UserRepository
	checks map[string]handler.HealthCheck
	close  func()
}

func main() {
	cfg := config.LoadConfig()
	logger.SetLevel(cfg.Server.LogLevel)
	defer logger.Sync()

	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize event store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer st.close()

	var (
		rdb    *redis.Client
		locker cache.EventLocker
		ledger cache.ReminderLedger
		queued queue.NotificationQueue
	)
	if cfg.Store.UseRedis {
		rdb, err = database.InitRedis(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		defer rdb.Close()

		locker = cache.NewRedisEventLocker(rdb, nil)
		ledger = cache.NewRedisReminderLedger(rdb, cfg.Reminder.LedgerTTL)
		hostname, _ := os.Hostname()
		queued, err = queue.NewRedisStreamNotificationQueue(ctx, rdb, fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]), nil)
		if err != nil {
			log.Fatal("Failed to initialize notification stream", zap.Error(err))
		}
		st.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		locker = cache.NewMemoryEventLocker()
		ledger = cache.NewMemoryReminderLedger()
		queued = queue.NewNotificationQueue(1000)
	}

	// 業務流程只把通知丟進佇列，真正寄送交給 worker
	var sink notification.Notifier
	if cfg.SMTP.Host != "" {
		sink = notification.NewSMTPNotifier(cfg.SMTP)
	} else {
		log.Warn("SMTP_HOST not set, notifications are only logged")
		sink = notification.NewLogNotifier(logger.WithComponent("notification"))
	}
	notifier := notification.NewQueueNotifier(queued)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	notificationWorker := worker.NewNotificationWorker(sink, queued)
	if err := notificationWorker.Start(workerCtx); err != nil {
		log.Fatal("Failed to start notification worker", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		log.Fatal("Invalid REMINDER_TIMEZONE", zap.String("timezone", cfg.Reminder.Timezone), zap.Error(err))
	}

	clk := clock.NewSystem()
	eventService := service.NewEventService(st.events, st.users, locker, notifier, clk)
	reminderService := service.NewReminderService(st.events, st.users, notifier, ledger, location)

	reminders, err := scheduler.NewReminderScheduler(cfg.Reminder.Cron, location, clk, reminderService)
	if err != nil {
		log.Fatal("Invalid REMINDER_CRON", zap.Error(err))
	}
	if err := reminders.Start(ctx); err != nil {
		log.Fatal("Failed to start reminder scheduler", zap.Error(err))
	}
	log.Info("Reminder scheduler started",
		zap.String("cron", cfg.Reminder.Cron),
		zap.Time("next", reminders.Next(clk.Now())),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewHealthHandler(st.checks).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	reminders.Stop()
	stopWorker()
	notificationWorker.Wait()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := database.InitDatabase(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &stores{
			events: repository.NewEventRepository(pool),
			users:  repository.NewUserRepository(pool),
			checks: map[string]handler.HealthCheck{"postgres": pool.Ping},
			close:  pool.Close,
		}, nil

	case "mongo":
		db, err := database.InitMongo(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &stores{
			events: repository.NewMongoEventRepository(db),
			users:  repository.NewMongoUserRepository(db),
			checks: map[string]handler.HealthCheck{
				"mongo": func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
			},
			close: func() { _ = db.Client().Disconnect(context.Background()) },
		}, nil

	case "memory":
		// 沒有 SEED_USERS 時找不到收件者，通知只會記 log 不會送出
		seed, err := repository.ParseSeedUsers(cfg.Store.SeedUsers)
		if err != nil {
			return nil, err
		}
		users := repository.NewMemoryUserRepository()
		if err := repository.SeedUsers(ctx, users, seed); err != nil {
			return nil, err
		}
		return &stores{
			events: repository.NewMemoryEventRepository(),
			users:  users,
			checks: map[string]handler.HealthCheck{},
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
}
