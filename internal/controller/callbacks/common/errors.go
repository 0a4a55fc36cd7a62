package common

import (
	"errors"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Ошибки уровня обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// Для перехода из недопустимого состояния объясняет, что делать дальше.
func ErrorMessage(err error) string {
	var transition *model.TransitionError
	var capacity *model.CapacityError

	switch {
	case errors.As(err, &transition):
		return transitionMessage(transition)
	case errors.As(err, &capacity):
		return "❌ В комнате нет мест: максимум участников достигнут"
	case errors.Is(err, model.ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, model.ErrLessonNotFound):
		return "❌ Урок не найден. Возможно, он был удалён"
	case errors.Is(err, model.ErrSlotNotFound):
		return "❌ Слот расписания не найден"
	case errors.Is(err, model.ErrCourseNotFound):
		return "❌ Курс не найден"
	case errors.Is(err, model.ErrSlotAlreadyBound):
		return "❌ Этот слот уже занят другим уроком. Выберите другой"
	case errors.Is(err, model.ErrSlotInactive):
		return "❌ Слот снят с публикации"
	case errors.Is(err, model.ErrCourseMismatch):
		return "❌ Слот относится к другому курсу"
	case errors.Is(err, model.ErrPermission):
		return "❌ Начать или завершить встречу может только преподаватель курса"
	case errors.Is(err, model.ErrConfirmTimeout):
		return "⏳ Сервер видеовстреч не ответил вовремя. Попробуйте начать ещё раз"
	case errors.Is(err, model.ErrConflict):
		return "⚠️ Данные изменились, пока вы выполняли действие. Обновите список"
	case errors.Is(err, model.ErrInvalidInput):
		return "❌ Неверные данные: " + err.Error()
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	default:
		return "❌ Произошла ошибка"
	}
}

func transitionMessage(e *model.TransitionError) string {
	switch e.From {
	case model.MeetingStateIdle:
		return "⏸ Встреча ещё не началась. Дождитесь, пока преподаватель её запустит"
	case model.MeetingStateStarting:
		return "⏳ Встреча запускается, попробуйте через несколько секунд"
	case model.MeetingStateLive:
		return "🎥 Встреча уже идёт, это действие сейчас недоступно"
	case model.MeetingStateEnded:
		return "🏁 Встреча уже завершена"
	default:
		return "❌ Действие недоступно в текущем состоянии"
	}
}
