package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/app"
	"github.com/Freeeeeet/lesson_scheduler/internal/calendar"
	"github.com/Freeeeeet/lesson_scheduler/internal/conference"
	"github.com/Freeeeeet/lesson_scheduler/internal/config"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller"
	"github.com/Freeeeeet/lesson_scheduler/internal/mq"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

const serviceName = "lesson-scheduler"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Service stopped with error", zap.Error(err))
	}
	logger.Info("Service stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) (err error) {
	logger.Info("Starting lesson scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("default_timezone", cfg.DefaultCourseTimezone),
	)

	shutdownTracer, err := app.InitTracer(ctx, serviceName, cfg.OtelEndpoint, cfg.Environment, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, shutdownTracer(context.WithoutCancel(ctx)))
	}()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		return multierr.Append(err, migrator.Close())
	}
	if err := migrator.Close(); err != nil {
		return err
	}

	var events service.EventPublisher = mq.NopPublisher{}
	if cfg.RabbitURL != "" {
		publisher, dialErr := mq.NewPublisher(cfg.RabbitURL, cfg.MeetingExchange)
		if dialErr != nil {
			return dialErr
		}
		defer func() {
			err = multierr.Append(err, publisher.Close())
		}()
		events = publisher
		logger.Info("✅ Publishing lesson events", zap.String("exchange", cfg.MeetingExchange))
	}

	rooms, err := conference.NewJitsiClient(cfg.ConferenceBaseURL, cfg.ConferenceCheck, logger)
	if err != nil {
		return err
	}

	db := base.NewRepository(pool)
	slotRepo := repository.NewSlotRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	sessionRepo := repository.NewMeetingSessionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	userRepo := repository.NewUserRepository(db)

	registry := service.NewScheduleRegistry(slotRepo, events, logger)
	binder := service.NewLessonBinder(db, registry, slotRepo, lessonRepo, sessionRepo, events, logger)
	meetings := service.NewMeetingController(lessonRepo, slotRepo, sessionRepo, rooms, events, cfg.MeetingConfirmTimeout, logger)
	calendarService := service.NewCalendarService(
		courseRepo, slotRepo, lessonRepo, sessionRepo,
		calendar.NewProjector(calendar.DefaultPalette, logger),
		cfg.DefaultCourseTimezone,
		logger,
	)
	userService := service.NewUserService(userRepo, courseRepo, logger)

	scheduler := app.NewScheduler(meetings, cfg.StaleSweepInterval, cfg.MeetingConfirmTimeout, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.TelegramToken == "" {
		logger.Warn("TELEGRAM_TOKEN is not set, running background tasks only")
		<-ctx.Done()
		return nil
	}

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}

	botController := controller.NewBotController(b, userService, calendarService, registry, binder, meetings, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		return err
	}

	return botController.Start(ctx)
}
