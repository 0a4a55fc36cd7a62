package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type SlotRepository struct {
	db *base.Repository
}

func NewSlotRepository(db *base.Repository) *SlotRepository {
	return &SlotRepository{db: db}
}

const slotColumns = `id, course_id, kind, day_of_week, date, start_time, end_time,
	duration_minutes, individual_price, is_active, bound_lesson_id, created_at`

func scanSlot(row pgx.Row) (*model.ScheduleSlot, error) {
	var slot model.ScheduleSlot
	err := row.Scan(
		&slot.ID,
		&slot.CourseID,
		&slot.Kind,
		&slot.DayOfWeek,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.DurationMinutes,
		&slot.IndividualPrice,
		&slot.IsActive,
		&slot.BoundLessonID,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func collectSlots(rows pgx.Rows) ([]*model.ScheduleSlot, error) {
	defer rows.Close()

	var slots []*model.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	query := `
		INSERT INTO schedule_slots (course_id, kind, day_of_week, date, start_time, end_time,
			duration_minutes, individual_price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.db.Conn(ctx).QueryRow(
		ctx, query,
		slot.CourseID,
		slot.Kind,
		slot.DayOfWeek,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
		slot.DurationMinutes,
		slot.IndividualPrice,
		slot.IsActive,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1`

	slot, err := scanSlot(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ListAvailable получает активные непривязанные слоты курса.
// Пустой kind означает слоты обоих типов.
func (r *SlotRepository) ListAvailable(ctx context.Context, courseID int64, kind model.SlotKind) ([]*model.ScheduleSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE course_id = $1
		  AND ($2 = '' OR kind = $2)
		  AND is_active
		  AND bound_lesson_id IS NULL
		ORDER BY kind DESC, day_of_week, date, start_time, id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, courseID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	slots, err := collectSlots(rows)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

// ListByCourses получает все слоты указанных курсов
func (r *SlotRepository) ListByCourses(ctx context.Context, courseIDs []int64) ([]*model.ScheduleSlot, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + slotColumns + `
		FROM schedule_slots
		WHERE course_id = ANY($1)
		ORDER BY id
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list slots by courses: %w", err)
	}

	slots, err := collectSlots(rows)
	if err != nil {
		return nil, fmt.Errorf("list slots by courses: %w", err)
	}
	return slots, nil
}

// Bind привязывает слот к уроку (с оптимистичной блокировкой)
func (r *SlotRepository) Bind(ctx context.Context, slotID, lessonID int64) error {
	query := `
		UPDATE schedule_slots
		SET bound_lesson_id = $1
		WHERE id = $2 AND bound_lesson_id IS NULL AND is_active
	`

	affected, err := r.db.ExecAffected(ctx, query, lessonID, slotID)
	if err != nil {
		return fmt.Errorf("bind slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotAlreadyBound
	}

	return nil
}

// Release освобождает слот. Повторный вызов ничего не меняет.
func (r *SlotRepository) Release(ctx context.Context, slotID int64) error {
	query := `UPDATE schedule_slots SET bound_lesson_id = NULL WHERE id = $1`

	affected, err := r.db.ExecAffected(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}

// Deactivate снимает слот с публикации
func (r *SlotRepository) Deactivate(ctx context.Context, slotID int64) error {
	query := `UPDATE schedule_slots SET is_active = false WHERE id = $1`

	affected, err := r.db.ExecAffected(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("deactivate slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}
