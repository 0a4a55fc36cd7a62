package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lesson_scheduler/internal/calendar"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

func snapshotFixture() *service.Snapshot {
	return &service.Snapshot{
		Input: calendar.Input{
			Lessons: []*model.Lesson{
				{ID: 10, CourseID: 1, Title: "Грамматика", Duration: 60, Price: 2500, MaxParticipants: 5, MeetingState: model.MeetingStateIdle},
				{ID: 11, CourseID: 1, Title: "Разговорный клуб", Duration: 90, MeetingState: model.MeetingStateIdle},
			},
			Sessions: []*model.MeetingSession{
				{LessonID: 10, CourseID: 1, State: model.MeetingStateLive, CurrentParticipants: 3, MaxParticipants: 5},
			},
		},
		Courses: map[int64]*model.Course{
			1: {ID: 1, Title: "Английский", InstructorID: 7},
		},
	}
}

func TestLessonCards(t *testing.T) {
	start := time.Date(2025, time.October, 14, 19, 0, 0, 0, time.UTC)
	events := []model.CalendarEvent{
		{Start: start, End: start.Add(time.Hour), LessonID: 10, CourseID: 1, SlotID: 1},
		{Start: start.Add(24 * time.Hour), End: start.Add(25 * time.Hour), CourseID: 1, SlotID: 2, Title: "Свободный слот"},
		{Start: start.Add(48 * time.Hour), End: start.Add(50 * time.Hour), LessonID: 11, CourseID: 1, SlotID: 3},
	}

	t.Run("instructor", func(t *testing.T) {
		cards := LessonCards(events, snapshotFixture(), &model.User{ID: 7}, time.UTC)
		require.Len(t, cards, 2)

		live := cards[0]
		assert.Equal(t, int64(10), live.LessonID)
		assert.Contains(t, live.Text, "Грамматика")
		assert.Contains(t, live.Text, "участников 3/5")
		assert.Contains(t, live.Text, "25 ₽")
		require.NotNil(t, live.Keyboard)
		assert.Len(t, live.Keyboard.InlineKeyboard, 2, "join/leave row and end row")

		idle := cards[1]
		assert.Contains(t, idle.Text, "бесплатно")
		require.NotNil(t, idle.Keyboard)
		assert.Equal(t, "meeting_start:11", idle.Keyboard.InlineKeyboard[0][0].CallbackData)
	})

	t.Run("student", func(t *testing.T) {
		cards := LessonCards(events, snapshotFixture(), &model.User{ID: 99}, time.UTC)
		require.Len(t, cards, 2)
		require.NotNil(t, cards[0].Keyboard)
		assert.Len(t, cards[0].Keyboard.InlineKeyboard, 1)
		assert.Nil(t, cards[1].Keyboard, "students cannot start a meeting")
	})
}

func TestLessonCards_WeeklyLessonAfterEndedOccurrence(t *testing.T) {
	start := time.Date(2025, time.October, 21, 19, 0, 0, 0, time.UTC)
	snap := &service.Snapshot{
		Input: calendar.Input{
			Lessons: []*model.Lesson{{
				ID: 10, CourseID: 1, Title: "Грамматика", Duration: 60,
				Status: model.LessonStatusCompleted, MeetingState: model.MeetingStateEnded,
				RegistrationDeadlineMinutes: 120,
			}},
			Sessions: []*model.MeetingSession{{LessonID: 10, CourseID: 1, State: model.MeetingStateEnded}},
			Now:      start.Add(-48 * time.Hour),
		},
		Courses: map[int64]*model.Course{1: {ID: 1, InstructorID: 7}},
	}
	events := []model.CalendarEvent{
		{Start: start, End: start.Add(time.Hour), Status: model.EventStatusScheduled, LessonID: 10, CourseID: 1, SlotID: 1},
	}

	cards := LessonCards(events, snap, &model.User{ID: 7}, time.UTC)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Text, "не начата")
	assert.Contains(t, cards[0].Text, "📝 Запись до 21.10.2025 17:00")
	require.NotNil(t, cards[0].Keyboard)
	assert.Equal(t, "meeting_start:10", cards[0].Keyboard.InlineKeyboard[0][0].CallbackData)

	snap.Input.Now = start.Add(-time.Hour)
	cards = LessonCards(events, snap, &model.User{ID: 7}, time.UTC)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Text, "📝 Запись закрыта")

	events[0].Status = model.EventStatusDone
	cards = LessonCards(events, snap, &model.User{ID: 7}, time.UTC)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Text, "завершена")
	assert.NotContains(t, cards[0].Text, "Запись")
	assert.Nil(t, cards[0].Keyboard)
}

func TestFormatEventList(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	start := time.Date(2025, time.October, 14, 12, 0, 0, 0, time.UTC)
	text := FormatEventList([]model.CalendarEvent{
		{Start: start, End: start.Add(time.Hour), Status: model.EventStatusAvailable, Title: "Свободный слот"},
	}, loc)

	assert.Contains(t, text, "Вт 14.10 19:00-20:00")
	assert.Contains(t, text, "свободно")
}

func TestFormatSlots(t *testing.T) {
	price := 3000
	date := time.Date(2025, time.October, 17, 0, 0, 0, 0, time.UTC)
	course := &model.Course{ID: 1, Title: "Английский", Timezone: "Asia/Bangkok"}

	text := FormatSlots(course, []*model.ScheduleSlot{
		{ID: 1, Kind: model.SlotKindWeekly, DayOfWeek: 2, StartTime: "19:00", EndTime: "20:00", DurationMinutes: 60},
		{ID: 2, Kind: model.SlotKindDated, Date: &date, StartTime: "12:00", EndTime: "13:30", DurationMinutes: 90, IndividualPrice: &price},
	})

	assert.Contains(t, text, "Английский (Asia/Bangkok)")
	assert.Contains(t, text, "#1 каждый Вт 19:00-20:00, 1 ч")
	assert.Contains(t, text, "#2 17.10.2025 12:00-13:30, 1 ч 30 мин, 30 ₽")

	assert.Contains(t, FormatSlots(course, nil), "свободных слотов нет")
}
