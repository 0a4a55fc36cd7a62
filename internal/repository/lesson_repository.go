package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type LessonRepository struct {
	db *base.Repository
}

func NewLessonRepository(db *base.Repository) *LessonRepository {
	return &LessonRepository{db: db}
}

// lessonScheduleRefKey - уникальный индекс lessons.schedule_ref
const lessonScheduleRefKey = "lessons_schedule_ref_key"

const lessonColumns = `id, course_id, schedule_ref, title, duration, price, max_participants,
	registration_deadline_minutes, status, meeting_state, created_at, updated_at`

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var lesson model.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.CourseID,
		&lesson.ScheduleRef,
		&lesson.Title,
		&lesson.Duration,
		&lesson.Price,
		&lesson.MaxParticipants,
		&lesson.RegistrationDeadlineMinutes,
		&lesson.Status,
		&lesson.MeetingState,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create создаёт урок
func (r *LessonRepository) Create(ctx context.Context, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (course_id, schedule_ref, title, duration, price, max_participants,
			registration_deadline_minutes, status, meeting_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Conn(ctx).QueryRow(
		ctx, query,
		lesson.CourseID,
		lesson.ScheduleRef,
		lesson.Title,
		lesson.Duration,
		lesson.Price,
		lesson.MaxParticipants,
		lesson.RegistrationDeadlineMinutes,
		lesson.Status,
		lesson.MeetingState,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)

	if err != nil {
		// Параллельный Bind того же слота успел вставить свой урок первым
		if base.UniqueViolation(err, lessonScheduleRefKey) {
			return model.ErrSlotAlreadyBound
		}
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID получает урок по ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`

	lesson, err := scanLesson(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return lesson, nil
}

// ListByCourses получает уроки указанных курсов
func (r *LessonRepository) ListByCourses(ctx context.Context, courseIDs []int64) ([]*model.Lesson, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE course_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	return lessons, rows.Err()
}

const lessonUpdateSet = `
		UPDATE lessons
		SET title = $2,
		    duration = $3,
		    price = $4,
		    max_participants = $5,
		    registration_deadline_minutes = $6,
		    updated_at = now()
		WHERE id = $1`

func lessonUpdateArgs(lesson *model.Lesson) []any {
	return []any{
		lesson.ID,
		lesson.Title,
		lesson.Duration,
		lesson.Price,
		lesson.MaxParticipants,
		lesson.RegistrationDeadlineMinutes,
	}
}

// Update сохраняет изменяемые поля урока. schedule_ref не обновляется никогда.
func (r *LessonRepository) Update(ctx context.Context, lesson *model.Lesson) error {
	query := lessonUpdateSet + `
		RETURNING updated_at
	`

	err := r.db.Conn(ctx).QueryRow(ctx, query, lessonUpdateArgs(lesson)...).Scan(&lesson.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrLessonNotFound
		}
		return fmt.Errorf("update lesson: %w", err)
	}

	return nil
}

// UpdateUnstarted сохраняет поля урока, только пока его встреча ни разу не запускалась.
// Проверка и запись выполняются одним запросом, поэтому параллельный Start их не разделит.
func (r *LessonRepository) UpdateUnstarted(ctx context.Context, lesson *model.Lesson) error {
	query := lessonUpdateSet + `
		  AND NOT EXISTS (
		      SELECT 1 FROM meeting_sessions ms
		      WHERE ms.lesson_id = lessons.id AND ms.state <> 'idle'
		  )
		RETURNING updated_at
	`

	err := r.db.Conn(ctx).QueryRow(ctx, query, lessonUpdateArgs(lesson)...).Scan(&lesson.UpdatedAt)
	if err == nil {
		return nil
	}
	if !base.IsNotFound(err) {
		return fmt.Errorf("update lesson: %w", err)
	}

	// Ни одна строка не подошла: либо урока нет, либо встреча уже начиналась
	var state model.MeetingState
	err = r.db.Conn(ctx).QueryRow(ctx, `SELECT state FROM meeting_sessions WHERE lesson_id = $1`, lesson.ID).Scan(&state)
	if err != nil {
		if base.IsNotFound(err) {
			return model.ErrLessonNotFound
		}
		return fmt.Errorf("update lesson: %w", err)
	}

	return &model.TransitionError{Op: "change duration", From: state}
}

// SetMeetingState обновляет зеркало состояния встречи и, если задан, статус урока
func (r *LessonRepository) SetMeetingState(ctx context.Context, id int64, state model.MeetingState, status model.LessonStatus) error {
	query := `
		UPDATE lessons
		SET meeting_state = $2,
		    status = COALESCE(NULLIF($3, ''), status),
		    updated_at = now()
		WHERE id = $1
	`

	affected, err := r.db.ExecAffected(ctx, query, id, state, string(status))
	if err != nil {
		return fmt.Errorf("set lesson meeting state: %w", err)
	}

	if affected == 0 {
		return model.ErrLessonNotFound
	}

	return nil
}

// Delete удаляет урок
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.db.ExecAffected(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	if affected == 0 {
		return model.ErrLessonNotFound
	}

	return nil
}
