package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/state"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	calendarService *service.CalendarService,
	registry *service.ScheduleRegistry,
	binder *service.LessonBinder,
	meetings *service.MeetingController,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager()

	return &BotController{
		bot:             botInstance,
		handlers:        handlers.NewHandlers(userService, calendarService, registry, stateManager, logger),
		callbackHandler: callbacks.NewHandler(userService, meetings, binder, logger),
		logger:          logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/calendar", bot.MatchTypeExact, c.handlers.HandleCalendar)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/lessons", bot.MatchTypeExact, c.handlers.HandleLessons)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/slots", bot.MatchTypeExact, c.handlers.HandleSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/timezone", bot.MatchTypePrefix, c.handlers.HandleTimezone)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "calendar", Description: "🗓 Календарь на неделю"},
		{Command: "lessons", Description: "📘 Ближайшие уроки и встречи"},
		{Command: "slots", Description: "🕒 Свободные слоты (преподаватель)"},
		{Command: "timezone", Description: "🌍 Часовой пояс календаря"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
