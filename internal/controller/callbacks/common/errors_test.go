package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "join before start",
			err:  fmt.Errorf("join meeting: %w", &model.TransitionError{Op: "join", From: model.MeetingStateIdle}),
			want: "⏸ Встреча ещё не началась. Дождитесь, пока преподаватель её запустит",
		},
		{
			name: "start after end",
			err:  fmt.Errorf("start meeting: %w", &model.TransitionError{Op: "start", From: model.MeetingStateEnded}),
			want: "🏁 Встреча уже завершена",
		},
		{
			name: "room full",
			err:  fmt.Errorf("join meeting: %w", &model.CapacityError{Max: 2}),
			want: "❌ В комнате нет мест: максимум участников достигнут",
		},
		{
			name: "slot taken",
			err:  fmt.Errorf("bind lesson: %w", model.ErrSlotAlreadyBound),
			want: "❌ Этот слот уже занят другим уроком. Выберите другой",
		},
		{
			name: "lesson missing",
			err:  fmt.Errorf("start meeting: %w", model.ErrLessonNotFound),
			want: "❌ Урок не найден. Возможно, он был удалён",
		},
		{
			name: "student tries to start",
			err:  fmt.Errorf("start meeting: %w", model.ErrPermission),
			want: "❌ Начать или завершить встречу может только преподаватель курса",
		},
		{
			name: "unknown",
			err:  fmt.Errorf("boom"),
			want: "❌ Произошла ошибка",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}
