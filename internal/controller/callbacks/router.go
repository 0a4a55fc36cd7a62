package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/keyboard"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *Handler) {
	data := callback.Data

	switch {
	case data == keyboard.CallbackNoop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Meeting lifecycle =====
	case strings.HasPrefix(data, keyboard.PrefixMeetingStart):
		h.HandleMeetingStart(ctx, b, callback)
	case strings.HasPrefix(data, keyboard.PrefixMeetingJoin):
		h.HandleMeetingJoin(ctx, b, callback)
	case strings.HasPrefix(data, keyboard.PrefixMeetingLeave):
		h.HandleMeetingLeave(ctx, b, callback)
	case strings.HasPrefix(data, keyboard.PrefixMeetingEnd):
		h.HandleMeetingEnd(ctx, b, callback)

	// ===== Lessons =====
	case strings.HasPrefix(data, keyboard.PrefixDeleteYes):
		h.HandleLessonDeleteConfirm(ctx, b, callback)
	case strings.HasPrefix(data, keyboard.PrefixLessonDelete):
		h.HandleLessonDelete(ctx, b, callback)

	default:
		h.Logger.Warn("Unknown callback",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Неизвестная команда")
	}
}
