package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, true
	}

	if errors.Is(err, model.ErrUserNotFound) {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Пользователь не найден. Используйте /start для регистрации.")
		return nil, false
	}

	h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
	h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
	return nil, false
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	h.send(ctx, b, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, params *bot.SendMessageParams) {
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Any("chat_id", params.ChatID),
			zap.Error(err),
		)
	}
}
