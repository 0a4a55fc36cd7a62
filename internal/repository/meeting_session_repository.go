package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type MeetingSessionRepository struct {
	db *base.Repository
}

func NewMeetingSessionRepository(db *base.Repository) *MeetingSessionRepository {
	return &MeetingSessionRepository{db: db}
}

const sessionColumns = `lesson_id, course_id, meeting_id, state, room_url, actual_start_time,
	actual_end_time, current_participants, max_participants, version, updated_at`

func scanSession(row pgx.Row) (*model.MeetingSession, error) {
	var s model.MeetingSession
	err := row.Scan(
		&s.LessonID,
		&s.CourseID,
		&s.MeetingID,
		&s.State,
		&s.RoomURL,
		&s.ActualStartTime,
		&s.ActualEndTime,
		&s.CurrentParticipants,
		&s.MaxParticipants,
		&s.Version,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get получает сессию урока
func (r *MeetingSessionRepository) Get(ctx context.Context, lessonID int64) (*model.MeetingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM meeting_sessions WHERE lesson_id = $1`

	s, err := scanSession(r.db.Conn(ctx).QueryRow(ctx, query, lessonID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get meeting session: %w", err)
	}

	return s, nil
}

// ListByLessons получает сессии указанных уроков
func (r *MeetingSessionRepository) ListByLessons(ctx context.Context, lessonIDs []int64) ([]*model.MeetingSession, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + sessionColumns + ` FROM meeting_sessions WHERE lesson_id = ANY($1) ORDER BY lesson_id`
	return r.list(ctx, query, lessonIDs)
}

// ListStale получает сессии, застрявшие в состоянии state дольше cutoff
func (r *MeetingSessionRepository) ListStale(ctx context.Context, state model.MeetingState, cutoff time.Time) ([]*model.MeetingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM meeting_sessions
		WHERE state = $1 AND updated_at < $2
		ORDER BY updated_at
	`
	return r.list(ctx, query, state, cutoff)
}

func (r *MeetingSessionRepository) list(ctx context.Context, query string, args ...any) ([]*model.MeetingSession, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meeting sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.MeetingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// Save сохраняет сессию, если её версия в базе равна expected.
// expected == 0 означает, что сессии ещё нет. При успехе s.Version увеличивается.
func (r *MeetingSessionRepository) Save(ctx context.Context, s *model.MeetingSession, expected int64) error {
	var query string
	if expected == 0 {
		query = `
			INSERT INTO meeting_sessions (lesson_id, course_id, meeting_id, state, room_url,
				actual_start_time, actual_end_time, current_participants, max_participants, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
			ON CONFLICT (lesson_id) DO NOTHING
			RETURNING version, updated_at
		`
	} else {
		query = `
			UPDATE meeting_sessions
			SET course_id = $2,
			    meeting_id = $3,
			    state = $4,
			    room_url = $5,
			    actual_start_time = $6,
			    actual_end_time = $7,
			    current_participants = $8,
			    max_participants = $9,
			    version = version + 1,
			    updated_at = now()
			WHERE lesson_id = $1 AND version = $10
			RETURNING version, updated_at
		`
	}

	args := []any{
		s.LessonID,
		s.CourseID,
		s.MeetingID,
		s.State,
		s.RoomURL,
		s.ActualStartTime,
		s.ActualEndTime,
		s.CurrentParticipants,
		s.MaxParticipants,
	}
	if expected != 0 {
		args = append(args, expected)
	}

	err := r.db.Conn(ctx).QueryRow(ctx, query, args...).Scan(&s.Version, &s.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrVersionConflict
		}
		return fmt.Errorf("save meeting session: %w", err)
	}

	return nil
}

// IncrementParticipants атомарно добавляет участника с проверкой вместимости
func (r *MeetingSessionRepository) IncrementParticipants(ctx context.Context, lessonID int64) (int, error) {
	query := `
		UPDATE meeting_sessions
		SET current_participants = current_participants + 1,
		    updated_at = now()
		WHERE lesson_id = $1
		  AND state = 'live'
		  AND (max_participants = 0 OR current_participants < max_participants)
		RETURNING current_participants
	`

	var count int
	err := r.db.Conn(ctx).QueryRow(ctx, query, lessonID).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !base.IsNotFound(err) {
		return 0, fmt.Errorf("increment participants: %w", err)
	}

	// Ни одна строка не подошла: выясняем причину
	s, err := r.Get(ctx, lessonID)
	if err != nil {
		return 0, err
	}
	if !s.IsLive() {
		return 0, &model.TransitionError{Op: "join", From: s.State}
	}
	return 0, &model.CapacityError{Max: s.MaxParticipants}
}

// DecrementParticipants атомарно убирает участника, не опускаясь ниже нуля
func (r *MeetingSessionRepository) DecrementParticipants(ctx context.Context, lessonID int64) (int, error) {
	query := `
		UPDATE meeting_sessions
		SET current_participants = GREATEST(current_participants - 1, 0),
		    updated_at = now()
		WHERE lesson_id = $1
		RETURNING current_participants
	`

	var count int
	err := r.db.Conn(ctx).QueryRow(ctx, query, lessonID).Scan(&count)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, model.ErrSessionNotFound
		}
		return 0, fmt.Errorf("decrement participants: %w", err)
	}

	return count, nil
}

// Delete удаляет сессию урока, если она есть
func (r *MeetingSessionRepository) Delete(ctx context.Context, lessonID int64) error {
	if _, err := r.db.ExecAffected(ctx, `DELETE FROM meeting_sessions WHERE lesson_id = $1`, lessonID); err != nil {
		return fmt.Errorf("delete meeting session: %w", err)
	}
	return nil
}
