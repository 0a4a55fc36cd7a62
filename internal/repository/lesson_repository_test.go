package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

func newLesson() *model.Lesson {
	return &model.Lesson{
		ID:           11,
		CourseID:     1,
		ScheduleRef:  7,
		Title:        "Грамматика",
		Duration:     90,
		Status:       model.LessonStatusScheduled,
		MeetingState: model.MeetingStateIdle,
	}
}

func TestLessonRepository_CreateDuplicateSlot(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta(`INSERT INTO lessons`)

	t.Run("schedule_ref unique index maps to slot conflict", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery(insert).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "lessons_schedule_ref_key"})

		err := NewLessonRepository(db).Create(ctx, newLesson())
		require.ErrorIs(t, err, model.ErrSlotAlreadyBound)
		require.ErrorIs(t, err, model.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other violations stay wrapped", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery(insert).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "lessons_course_id_fkey"})

		err := NewLessonRepository(db).Create(ctx, newLesson())
		require.ErrorContains(t, err, "create lesson")
		require.NotErrorIs(t, err, model.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

// Два Bind одного слота: проигравший упирается в уникальный индекс на INSERT,
// до UPDATE слота не доходит и всё равно получает конфликт, а транзакция откатывается.
func TestLessonBinder_BindLosingInsertRace(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM schedule_slots WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(freeWeeklySlotRow(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO lessons`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "lessons_schedule_ref_key"})
	mock.ExpectRollback()

	slots := NewSlotRepository(db)
	registry := service.NewScheduleRegistry(slots, nil, zap.NewNop())
	binder := service.NewLessonBinder(db, registry, slots, NewLessonRepository(db), NewMeetingSessionRepository(db), nil, zap.NewNop())

	_, err := binder.Bind(context.Background(), model.NewLessonDraft(1, "Грамматика"), 7)
	require.ErrorIs(t, err, model.ErrSlotAlreadyBound)
	require.ErrorIs(t, err, model.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_UpdateUnstarted(t *testing.T) {
	ctx := context.Background()
	guarded := regexp.QuoteMeta(`WHERE id = $1 AND NOT EXISTS ( SELECT 1 FROM meeting_sessions ms WHERE ms.lesson_id = lessons.id AND ms.state <> 'idle' )`)
	state := regexp.QuoteMeta(`SELECT state FROM meeting_sessions WHERE lesson_id = $1`)

	tests := []struct {
		name    string
		mock    func(mock pgxmock.PgxPoolIface, l *model.Lesson)
		wantErr error
	}{
		{
			name: "idle lesson is updated",
			mock: func(mock pgxmock.PgxPoolIface, l *model.Lesson) {
				mock.ExpectQuery(guarded).
					WithArgs(l.ID, l.Title, l.Duration, l.Price, l.MaxParticipants, l.RegistrationDeadlineMinutes).
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(fixedNow))
			},
		},
		{
			name: "meeting already started",
			mock: func(mock pgxmock.PgxPoolIface, l *model.Lesson) {
				mock.ExpectQuery(guarded).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(state).
					WithArgs(l.ID).
					WillReturnRows(pgxmock.NewRows([]string{"state"}).AddRow(model.MeetingStateStarting))
			},
			wantErr: model.ErrInvalidStateTransition,
		},
		{
			name: "missing lesson",
			mock: func(mock pgxmock.PgxPoolIface, l *model.Lesson) {
				mock.ExpectQuery(guarded).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(state).WithArgs(l.ID).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrLessonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			lesson := newLesson()
			tt.mock(mock, lesson)

			err := NewLessonRepository(db).UpdateUnstarted(ctx, lesson)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, fixedNow, lesson.UpdatedAt)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
