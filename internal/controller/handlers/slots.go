package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// HandleSlots показывает преподавателю свободные слоты его курсов
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	courses, err := h.userService.ManagedCourses(ctx, user)
	if err != nil {
		h.logger.Error("Failed to list managed courses", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Не удалось загрузить курсы. Попробуйте позже.")
		return
	}
	if len(courses) == 0 {
		h.sendMessage(ctx, b, chatID, "❌ Эта команда доступна преподавателям курсов.")
		return
	}

	var sb strings.Builder
	for _, course := range courses {
		slots, err := h.registry.ListAvailable(ctx, course.ID, "")
		if err != nil {
			h.logger.Error("Failed to list available slots", zap.Int64("course_id", course.ID), zap.Error(err))
			h.sendMessage(ctx, b, chatID, "❌ Не удалось загрузить слоты. Попробуйте позже.")
			return
		}
		sb.WriteString(FormatSlots(course, slots))
		sb.WriteString("\n")
	}

	h.sendMessage(ctx, b, chatID, strings.TrimSpace(sb.String()))
}

// FormatSlots печатает свободные слоты курса во времени курса
func FormatSlots(course *model.Course, slots []*model.ScheduleSlot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 %s", course.Title)
	if course.Timezone != "" {
		fmt.Fprintf(&sb, " (%s)", course.Timezone)
	}
	sb.WriteString("\n")

	if len(slots) == 0 {
		sb.WriteString("   свободных слотов нет\n")
		return sb.String()
	}

	for _, slot := range slots {
		when := "каждый " + formatting.WeekdayShort(slot.DayOfWeek)
		if slot.Kind == model.SlotKindDated && slot.Date != nil {
			when = slot.Date.Format("02.01.2006")
		}
		fmt.Fprintf(&sb, "   #%d %s %s-%s, %s",
			slot.ID, when, slot.StartTime, slot.EndTime, formatting.FormatDuration(slot.DurationMinutes))
		if slot.IndividualPrice != nil {
			fmt.Fprintf(&sb, ", %s", formatting.FormatPrice(*slot.IndividualPrice))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
