package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/render"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

const maxLessonCards = 10

// HandleCalendar отправляет календарь текущей недели картинкой и списком
func (h *Handlers) HandleCalendar(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	loc := h.calendarService.Location(user)
	now := h.calendarService.Now().In(loc)
	weekStart := render.WeekStart(now)

	events, err := h.calendarService.Week(ctx, user, weekStart)
	if err != nil {
		h.logger.Error("Failed to build calendar", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Не удалось загрузить расписание. Попробуйте позже.")
		return
	}

	if len(events) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 На этой неделе нет ни уроков, ни свободных слотов.")
		return
	}

	img, err := render.WeekImage(events, weekStart, now, loc)
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err))
	} else {
		_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:  chatID,
			Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(img)},
			Caption: fmt.Sprintf("🗓 Неделя с %s (%s)", weekStart.Format("02.01"), loc.String()),
		})
		if err != nil {
			h.logger.Error("Failed to send week image", zap.Error(err))
		}
	}

	h.sendMessage(ctx, b, chatID, FormatEventList(events, loc))
}

// HandleLessons отправляет карточки ближайших уроков с кнопками встречи
func (h *Handlers) HandleLessons(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	events, snap, err := h.calendarService.Upcoming(ctx, user)
	if err != nil {
		h.logger.Error("Failed to load lessons", zap.Int64("user_id", user.ID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, "❌ Не удалось загрузить уроки. Попробуйте позже.")
		return
	}

	loc := h.calendarService.Location(user)
	cards := LessonCards(events, snap, user, loc)
	if len(cards) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Уроков пока нет.")
		return
	}

	for _, card := range cards {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   card.Text,
		}
		if card.Keyboard != nil {
			params.ReplyMarkup = card.Keyboard
		}
		h.send(ctx, b, params)
	}
}

// FormatEventList печатает события списком в часовом поясе loc
func FormatEventList(events []model.CalendarEvent, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("🗓 Расписание:\n")
	for _, ev := range events {
		fmt.Fprintf(&sb, "\n%s  %s\n   %s",
			formatting.FormatEventTime(ev.Start.In(loc), ev.End.In(loc)),
			ev.Title,
			formatting.EventStatusLabel(ev.Status),
		)
	}
	return sb.String()
}

// LessonCard - текст и кнопки одного урока
type LessonCard struct {
	LessonID int64
	Text     string
	Keyboard *models.InlineKeyboardMarkup
}

// LessonCards строит карточки уроков из ближайших событий; свободные слоты пропускаются
func LessonCards(events []model.CalendarEvent, snap *service.Snapshot, user *model.User, loc *time.Location) []LessonCard {
	lessons := make(map[int64]*model.Lesson, len(snap.Input.Lessons))
	for _, l := range snap.Input.Lessons {
		lessons[l.ID] = l
	}
	sessions := make(map[int64]*model.MeetingSession, len(snap.Input.Sessions))
	for _, s := range snap.Input.Sessions {
		sessions[s.LessonID] = s
	}

	var cards []LessonCard
	for _, ev := range events {
		if len(cards) == maxLessonCards {
			break
		}
		lesson, ok := lessons[ev.LessonID]
		if ev.LessonID == 0 || !ok {
			continue
		}

		meetingState := lesson.MeetingState
		participants := 0
		if s, ok := sessions[lesson.ID]; ok {
			meetingState = s.State
			participants = s.CurrentParticipants
		}
		// Прошлое занятие еженедельного урока завершено, это занятие ещё впереди
		if meetingState == model.MeetingStateEnded && ev.Status != model.EventStatusDone {
			meetingState = model.MeetingStateIdle
		}

		role := model.RoleStudent
		if course, ok := snap.Courses[lesson.CourseID]; ok {
			role = course.RoleOf(user)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📘 %s\n", lesson.Title)
		fmt.Fprintf(&sb, "🕒 %s (%s)\n", formatting.FormatEventTime(ev.Start.In(loc), ev.End.In(loc)), formatting.FormatDuration(lesson.Duration))
		fmt.Fprintf(&sb, "💰 %s\n", formatting.FormatPrice(lesson.Price))
		if line := registrationLine(lesson, ev, snap.Input.Now, loc); line != "" {
			sb.WriteString(line + "\n")
		}
		fmt.Fprintf(&sb, "Встреча: %s", formatting.MeetingStateLabel(meetingState))
		if meetingState == model.MeetingStateLive {
			if lesson.HasCapacityLimit() {
				fmt.Fprintf(&sb, ", участников %d/%d", participants, lesson.MaxParticipants)
			} else {
				fmt.Fprintf(&sb, ", участников %d", participants)
			}
		}

		cards = append(cards, LessonCard{
			LessonID: lesson.ID,
			Text:     sb.String(),
			Keyboard: keyboard.MeetingKeyboard(lesson.ID, meetingState, role),
		})
	}
	return cards
}

// registrationLine показывает дедлайн записи на занятие, пока встреча не началась
func registrationLine(lesson *model.Lesson, ev model.CalendarEvent, now time.Time, loc *time.Location) string {
	if lesson.RegistrationDeadlineMinutes <= 0 || ev.Status != model.EventStatusScheduled {
		return ""
	}
	closes := lesson.RegistrationClosesAt(ev.Start)
	if !now.Before(closes) {
		return "📝 Запись закрыта"
	}
	return "📝 Запись до " + formatting.FormatDateTime(closes.In(loc))
}
