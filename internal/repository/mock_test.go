package repository

import (
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
)

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *base.Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, base.NewRepository(mock)
}

var fixedNow = time.Date(2026, time.October, 13, 18, 0, 0, 0, time.UTC)

var sessionCols = []string{
	"lesson_id", "course_id", "meeting_id", "state", "room_url", "actual_start_time",
	"actual_end_time", "current_participants", "max_participants", "version", "updated_at",
}

func sessionRow(lessonID int64, state model.MeetingState, current, limit int) *pgxmock.Rows {
	started := fixedNow
	return pgxmock.NewRows(sessionCols).AddRow(
		lessonID, int64(1), "meeting-1", state, "https://meet.example.org/meeting-1",
		&started, nil, current, limit, int64(2), fixedNow,
	)
}

var slotCols = []string{
	"id", "course_id", "kind", "day_of_week", "date", "start_time", "end_time",
	"duration_minutes", "individual_price", "is_active", "bound_lesson_id", "created_at",
}

func freeWeeklySlotRow(id, courseID int64) *pgxmock.Rows {
	return pgxmock.NewRows(slotCols).AddRow(
		id, courseID, model.SlotKindWeekly, 2, nil, "18:00", "19:00",
		60, nil, true, nil, fixedNow,
	)
}
