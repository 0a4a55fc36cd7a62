package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type CourseRepository struct {
	db *base.Repository
}

func NewCourseRepository(db *base.Repository) *CourseRepository {
	return &CourseRepository{db: db}
}

// co_instructor_ids собирается подзапросом, чтобы курс читался одной строкой
const courseSelect = `
	SELECT c.id, c.title, c.timezone, c.instructor_id, c.created_at,
	       COALESCE(ARRAY(SELECT ci.user_id FROM course_co_instructors ci
	                      WHERE ci.course_id = c.id ORDER BY ci.user_id), '{}')
	FROM courses c
`

func scanCourse(row pgx.Row) (*model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Timezone,
		&course.InstructorID,
		&course.CreatedAt,
		&course.CoInstructorIDs,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create создаёт курс
func (r *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (title, timezone, instructor_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.Conn(ctx).QueryRow(ctx, query, course.Title, course.Timezone, course.InstructorID).
		Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		return fmt.Errorf("create course: %w", err)
	}

	return nil
}

// GetByID получает курс по ID вместе со списком со-преподавателей
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	course, err := scanCourse(r.db.Conn(ctx).QueryRow(ctx, courseSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return course, nil
}

// ListForUser получает курсы, где пользователь преподаёт или учится
func (r *CourseRepository) ListForUser(ctx context.Context, userID int64) ([]*model.Course, error) {
	query := courseSelect + `
		WHERE c.instructor_id = $1
		   OR EXISTS (SELECT 1 FROM course_co_instructors ci WHERE ci.course_id = c.id AND ci.user_id = $1)
		   OR EXISTS (SELECT 1 FROM course_enrollments ce WHERE ce.course_id = c.id AND ce.user_id = $1)
		ORDER BY c.id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list courses for user: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}

	return courses, rows.Err()
}

// AddCoInstructor добавляет со-преподавателя
func (r *CourseRepository) AddCoInstructor(ctx context.Context, courseID, userID int64) error {
	query := `
		INSERT INTO course_co_instructors (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecAffected(ctx, query, courseID, userID); err != nil {
		return fmt.Errorf("add co-instructor: %w", err)
	}
	return nil
}

// Enroll записывает студента на курс
func (r *CourseRepository) Enroll(ctx context.Context, courseID, userID int64) error {
	query := `
		INSERT INTO course_enrollments (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecAffected(ctx, query, courseID, userID); err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	return nil
}

// IsEnrolled проверяет, записан ли пользователь на курс
func (r *CourseRepository) IsEnrolled(ctx context.Context, courseID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM course_enrollments WHERE course_id = $1 AND user_id = $2
		)
	`

	var enrolled bool
	if err := r.db.Conn(ctx).QueryRow(ctx, query, courseID, userID).Scan(&enrolled); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}
