package keyboard

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Префиксы callback data действий со встречей
const (
	PrefixMeetingStart = "meeting_start:"
	PrefixMeetingJoin  = "meeting_join:"
	PrefixMeetingLeave = "meeting_leave:"
	PrefixMeetingEnd   = "meeting_end:"
	PrefixLessonDelete = "lesson_delete:"
	PrefixDeleteYes    = "lesson_delete_yes:"
	CallbackNoop       = "noop"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton создаёт кнопку с URL
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// Len возвращает количество рядов
func (b *Builder) Len() int {
	return len(b.rows)
}

func callback(prefix string, lessonID int64) string {
	return fmt.Sprintf("%s%d", prefix, lessonID)
}

// MeetingKeyboard строит кнопки урока по состоянию встречи и роли пользователя.
// Возвращает nil, если действий нет.
func MeetingKeyboard(lessonID int64, state model.MeetingState, role model.Role) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	manager := role.CanManageMeeting()

	switch state {
	case model.MeetingStateIdle, "":
		if manager {
			b.Row(Button("▶️ Начать встречу", callback(PrefixMeetingStart, lessonID)))
			b.Row(Button("🗑 Удалить урок", callback(PrefixLessonDelete, lessonID)))
		}
	case model.MeetingStateStarting:
		b.Row(Button("⏳ Встреча запускается", CallbackNoop))
	case model.MeetingStateLive:
		b.Row(
			Button("🎥 Войти", callback(PrefixMeetingJoin, lessonID)),
			Button("🚪 Выйти", callback(PrefixMeetingLeave, lessonID)),
		)
		if manager {
			b.Row(Button("⏹ Завершить встречу", callback(PrefixMeetingEnd, lessonID)))
		}
	}

	if b.Len() == 0 {
		return nil
	}
	return b.Build()
}

// ConfirmDeleteKeyboard - подтверждение удаления урока
func ConfirmDeleteKeyboard(lessonID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Да, удалить", callback(PrefixDeleteYes, lessonID)),
			Button("❌ Нет", CallbackNoop),
		).
		Build()
}
