package formatting

import "github.com/Freeeeeet/lesson_scheduler/internal/model"

// EventStatusLabel возвращает подпись статуса события календаря
func EventStatusLabel(status model.EventStatus) string {
	switch status {
	case model.EventStatusActive:
		return "🟢 идёт сейчас"
	case model.EventStatusDone:
		return "⚪️ завершено"
	case model.EventStatusAvailable:
		return "🔵 свободно"
	case model.EventStatusScheduled:
		return "🟡 запланировано"
	default:
		return string(status)
	}
}

// MeetingStateLabel возвращает подпись состояния встречи
func MeetingStateLabel(state model.MeetingState) string {
	switch state {
	case model.MeetingStateStarting:
		return "⏳ запускается"
	case model.MeetingStateLive:
		return "🎥 идёт"
	case model.MeetingStateEnded:
		return "🏁 завершена"
	default:
		return "⏸ не начата"
	}
}
