package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/state"
)

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	user, err := h.userService.RegisterUser(
		ctx,
		from.ID,
		from.Username,
		from.FirstName,
		from.LastName,
		from.LanguageCode,
	)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Здесь видно расписание ваших курсов и проходят онлайн-встречи уроков.\n\n"+
			"/calendar - Календарь на неделю\n"+
			"/lessons - Ближайшие уроки и встречи\n"+
			"/timezone - Часовой пояс календаря\n"+
			"/help - Справка",
		user.DisplayName(),
	)

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcomeText)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/calendar - Календарь недели картинкой и списком\n" +
		"/lessons - Ближайшие уроки с кнопками встречи\n" +
		"/timezone Europe/Moscow - Сменить часовой пояс\n" +
		"/cancel - Отменить текущий ввод\n\n" +
		"Цвета календаря:\n" +
		"🟢 идёт сейчас, 🟡 запланировано, 🔵 свободный слот, ⚪️ завершено\n\n" +
		"Преподаватель курса начинает и завершает встречу, участники входят по кнопке «Войти»."

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleTimezone обрабатывает /timezone [IANA-зона]
func (h *Handlers) HandleTimezone(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/timezone"))
	if arg == "" {
		h.stateManager.SetState(user.TelegramID, state.StateEnteringTimezone)
		h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"🌍 Текущий часовой пояс: %s\n\nОтправьте новый, например Europe/Moscow или Asia/Bangkok.\n/cancel - отмена",
			h.calendarService.Location(user).String(),
		))
		return
	}

	h.applyTimezone(ctx, b, update, arg)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются другими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	switch h.stateManager.GetState(telegramID) {
	case state.StateEnteringTimezone:
		h.applyTimezone(ctx, b, update, strings.TrimSpace(update.Message.Text))
	default:
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
	}
}

func (h *Handlers) applyTimezone(ctx context.Context, b *bot.Bot, update *models.Update, tz string) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if err := h.userService.SetTimezone(ctx, user, tz); err != nil {
		h.logger.Info("Timezone rejected", zap.String("timezone", tz), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err)+"\n\nПример: Europe/Moscow")
		return
	}

	h.stateManager.ClearState(user.TelegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Часовой пояс сохранён: "+tz)
}
