package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// HandleLessonDelete спрашивает подтверждение удаления урока
func (h *Handler) HandleLessonDelete(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "delete lesson", err)
		return
	}
	if !req.actor.Role.CanManageMeeting() {
		h.fail(ctx, b, callback, "delete lesson", model.ErrPermission)
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "")

	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		return
	}
	_, err = b.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: keyboard.ConfirmDeleteKeyboard(req.lessonID),
	})
	if err != nil {
		h.Logger.Debug("Failed to show delete confirmation", zap.Int64("lesson_id", req.lessonID), zap.Error(err))
	}
}

// HandleLessonDeleteConfirm удаляет урок и освобождает его слот
func (h *Handler) HandleLessonDeleteConfirm(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "delete lesson", err)
		return
	}
	if !req.actor.Role.CanManageMeeting() {
		h.fail(ctx, b, callback, "delete lesson", model.ErrPermission)
		return
	}

	if err := h.Lessons.DeleteLesson(ctx, req.lessonID); err != nil {
		h.fail(ctx, b, callback, "delete lesson", err)
		return
	}

	h.Logger.Info("Lesson deleted from bot",
		zap.Int64("lesson_id", req.lessonID),
		zap.Int64("actor_id", req.actor.UserID),
	)
	common.AnswerCallback(ctx, b, callback.ID, "🗑 Урок удалён, слот снова свободен")

	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		return
	}
	_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      "🗑 Урок удалён",
	})
	if err != nil {
		h.Logger.Debug("Failed to update deleted lesson card", zap.Int64("lesson_id", req.lessonID), zap.Error(err))
	}
}
