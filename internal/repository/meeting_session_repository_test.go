package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

func startingSession() *model.MeetingSession {
	started := fixedNow
	return &model.MeetingSession{
		LessonID:        5,
		CourseID:        1,
		MeetingID:       "meeting-1",
		State:           model.MeetingStateStarting,
		ActualStartTime: &started,
		MaxParticipants: 3,
	}
}

func sessionArgs(s *model.MeetingSession, extra ...any) []any {
	args := []any{
		s.LessonID, s.CourseID, s.MeetingID, s.State, s.RoomURL,
		s.ActualStartTime, s.ActualEndTime, s.CurrentParticipants, s.MaxParticipants,
	}
	return append(args, extra...)
}

func TestMeetingSessionRepository_Save(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta(`ON CONFLICT (lesson_id) DO NOTHING RETURNING version, updated_at`)
	update := regexp.QuoteMeta(`WHERE lesson_id = $1 AND version = $10 RETURNING version, updated_at`)

	tests := []struct {
		name        string
		expected    int64
		mock        func(mock pgxmock.PgxPoolIface, s *model.MeetingSession)
		wantVersion int64
		wantErr     error
	}{
		{
			name:     "first save inserts version 1",
			expected: 0,
			mock: func(mock pgxmock.PgxPoolIface, s *model.MeetingSession) {
				mock.ExpectQuery(insert).
					WithArgs(sessionArgs(s)...).
					WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(1), fixedNow))
			},
			wantVersion: 1,
		},
		{
			name:     "insert racing an existing row is a conflict",
			expected: 0,
			mock: func(mock pgxmock.PgxPoolIface, s *model.MeetingSession) {
				mock.ExpectQuery(insert).
					WithArgs(sessionArgs(s)...).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrVersionConflict,
		},
		{
			name:     "update bumps the version it matched",
			expected: 3,
			mock: func(mock pgxmock.PgxPoolIface, s *model.MeetingSession) {
				mock.ExpectQuery(update).
					WithArgs(sessionArgs(s, int64(3))...).
					WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(int64(4), fixedNow))
			},
			wantVersion: 4,
		},
		{
			name:     "stale version is a conflict",
			expected: 3,
			mock: func(mock pgxmock.PgxPoolIface, s *model.MeetingSession) {
				mock.ExpectQuery(update).
					WithArgs(sessionArgs(s, int64(3))...).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrVersionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			s := startingSession()
			tt.mock(mock, s)

			err := NewMeetingSessionRepository(db).Save(ctx, s, tt.expected)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, model.ErrConflict)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantVersion, s.Version)
				assert.Equal(t, fixedNow, s.UpdatedAt)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMeetingSessionRepository_IncrementParticipants(t *testing.T) {
	ctx := context.Background()
	guarded := regexp.QuoteMeta(`SET current_participants = current_participants + 1`) + `.*` +
		regexp.QuoteMeta(`WHERE lesson_id = $1 AND state = 'live' AND (max_participants = 0 OR current_participants < max_participants)`)
	get := regexp.QuoteMeta(`FROM meeting_sessions WHERE lesson_id = $1`)

	tests := []struct {
		name      string
		mock      func(mock pgxmock.PgxPoolIface)
		wantCount int
		wantErr   error
	}{
		{
			name: "seat taken under the guard",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(guarded).
					WithArgs(int64(5)).
					WillReturnRows(pgxmock.NewRows([]string{"current_participants"}).AddRow(2))
			},
			wantCount: 2,
		},
		{
			name: "full live session reports capacity",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(guarded).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(get).WithArgs(int64(5)).WillReturnRows(sessionRow(5, model.MeetingStateLive, 3, 3))
			},
			wantErr: model.ErrCapacityExceeded,
		},
		{
			name: "session not live reports transition",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(guarded).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(get).WithArgs(int64(5)).WillReturnRows(sessionRow(5, model.MeetingStateEnded, 0, 3))
			},
			wantErr: model.ErrInvalidStateTransition,
		},
		{
			name: "no session at all",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(guarded).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
				mock.ExpectQuery(get).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: model.ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			tt.mock(mock)

			count, err := NewMeetingSessionRepository(db).IncrementParticipants(ctx, 5)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCount, count)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("capacity error carries the limit", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery(guarded).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(get).WithArgs(int64(5)).WillReturnRows(sessionRow(5, model.MeetingStateLive, 3, 3))

		_, err := NewMeetingSessionRepository(db).IncrementParticipants(ctx, 5)
		var capErr *model.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 3, capErr.Max)
	})
}

func TestMeetingSessionRepository_DecrementParticipants(t *testing.T) {
	ctx := context.Background()
	floored := regexp.QuoteMeta(`SET current_participants = GREATEST(current_participants - 1, 0)`)

	t.Run("never below zero", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery(floored).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows([]string{"current_participants"}).AddRow(0))

		count, err := NewMeetingSessionRepository(db).DecrementParticipants(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing session", func(t *testing.T) {
		mock, db := newMockDB(t)
		mock.ExpectQuery(floored).WithArgs(int64(5)).WillReturnError(pgx.ErrNoRows)

		_, err := NewMeetingSessionRepository(db).DecrementParticipants(ctx, 5)
		require.ErrorIs(t, err, model.ErrSessionNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMeetingSessionRepository_Get(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM meeting_sessions WHERE lesson_id = $1`)).
		WithArgs(int64(5)).
		WillReturnRows(sessionRow(5, model.MeetingStateLive, 2, 3))

	s, err := NewMeetingSessionRepository(db).Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStateLive, s.State)
	assert.Equal(t, 2, s.CurrentParticipants)
	require.NotNil(t, s.ActualStartTime)
	assert.True(t, s.ActualStartTime.Equal(fixedNow))
	assert.Nil(t, s.ActualEndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}
