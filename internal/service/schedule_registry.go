package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// SlotInput - данные для создания слота расписания
type SlotInput struct {
	CourseID        int64  `json:"course_id" validate:"required,gt=0"`
	DayOfWeek       int    `json:"day_of_week" validate:"min=0,max=6"`
	Date            string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required,clock"`
	EndTime         string `json:"end_time" validate:"required,clock"`
	DurationText    string `json:"duration_text" validate:"omitempty,max=64"`
	IndividualPrice *int   `json:"individual_price" validate:"omitempty,gte=0"`
}

type ScheduleRegistry struct {
	slots  SlotStore
	events EventPublisher
	now    func() time.Time
	logger *zap.Logger
}

func NewScheduleRegistry(slots SlotStore, events EventPublisher, logger *zap.Logger) *ScheduleRegistry {
	return &ScheduleRegistry{
		slots:  slots,
		events: events,
		now:    time.Now,
		logger: logger,
	}
}

// CreateWeeklySlot создаёт еженедельный слот
func (r *ScheduleRegistry) CreateWeeklySlot(ctx context.Context, in SlotInput) (*model.ScheduleSlot, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.IndividualPrice != nil {
		return nil, invalidInput("individual_price is only supported for dated slots")
	}

	duration, err := slotDuration(in)
	if err != nil {
		return nil, err
	}

	slot := &model.ScheduleSlot{
		CourseID:        in.CourseID,
		Kind:            model.SlotKindWeekly,
		DayOfWeek:       in.DayOfWeek,
		StartTime:       normalizeClock(in.StartTime),
		EndTime:         normalizeClock(in.EndTime),
		DurationMinutes: duration,
		IsActive:        true,
	}
	return r.create(ctx, slot)
}

// CreateDatedSlot создаёт разовый слот на конкретную дату
func (r *ScheduleRegistry) CreateDatedSlot(ctx context.Context, in SlotInput) (*model.ScheduleSlot, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Date == "" {
		return nil, invalidInput("date is required for dated slots")
	}

	date, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return nil, invalidInput("date must be in 2006-01-02 format")
	}

	duration, err := slotDuration(in)
	if err != nil {
		return nil, err
	}

	slot := &model.ScheduleSlot{
		CourseID:        in.CourseID,
		Kind:            model.SlotKindDated,
		DayOfWeek:       int(date.Weekday()),
		Date:            &date,
		StartTime:       normalizeClock(in.StartTime),
		EndTime:         normalizeClock(in.EndTime),
		DurationMinutes: duration,
		IndividualPrice: in.IndividualPrice,
		IsActive:        true,
	}
	return r.create(ctx, slot)
}

func (r *ScheduleRegistry) create(ctx context.Context, slot *model.ScheduleSlot) (*model.ScheduleSlot, error) {
	if err := r.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	r.logger.Info("Schedule slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("course_id", slot.CourseID),
		zap.String("kind", string(slot.Kind)),
		zap.String("start_time", slot.StartTime),
		zap.Int("duration_minutes", slot.DurationMinutes),
	)

	return slot, nil
}

// slotDuration вычисляется один раз при создании: из текстовой пометки, если она разбирается,
// иначе как end - start
func slotDuration(in SlotInput) (int, error) {
	start, _ := model.ClockMinutes(in.StartTime)
	end, _ := model.ClockMinutes(in.EndTime)
	if end <= start {
		return 0, invalidInput("end_time must be after start_time")
	}

	if in.DurationText != "" {
		if minutes, ok := ParseDurationText(in.DurationText); ok {
			return minutes, nil
		}
	}
	return end - start, nil
}

func normalizeClock(s string) string {
	minutes, err := model.ClockMinutes(s)
	if err != nil {
		return s
	}
	return model.FormatClock(minutes)
}

// Get получает слот по ID
func (r *ScheduleRegistry) Get(ctx context.Context, slotID int64) (*model.ScheduleSlot, error) {
	slot, err := r.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

// ListAvailable возвращает активные непривязанные слоты курса.
// Пустой kind - слоты обоих типов, еженедельные первыми.
func (r *ScheduleRegistry) ListAvailable(ctx context.Context, courseID int64, kind model.SlotKind) ([]*model.ScheduleSlot, error) {
	switch kind {
	case "", model.SlotKindWeekly, model.SlotKindDated:
	default:
		return nil, invalidInput("unknown slot kind %q", kind)
	}

	slots, err := r.slots.ListAvailable(ctx, courseID, kind)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}

	// Хранилище может вернуть лишнее, если слот заняли между запросами
	available := slots[:0]
	for _, slot := range slots {
		if slot.IsAvailable() {
			available = append(available, slot)
		}
	}

	SortSlots(available)
	return available, nil
}

// Release освобождает слот; повторный вызов безопасен
func (r *ScheduleRegistry) Release(ctx context.Context, slotID int64) error {
	slot, err := r.release(ctx, slotID)
	if err != nil {
		return err
	}

	r.publishReleased(ctx, slot)
	return nil
}

// release освобождает слот без публикации события, для использования внутри транзакции
func (r *ScheduleRegistry) release(ctx context.Context, slotID int64) (*model.ScheduleSlot, error) {
	slot, err := r.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	if err := r.slots.Release(ctx, slotID); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	r.logger.Info("Schedule slot released",
		zap.Int64("slot_id", slotID),
		zap.Int64("course_id", slot.CourseID),
	)

	return slot, nil
}

func (r *ScheduleRegistry) publishReleased(ctx context.Context, slot *model.ScheduleSlot) {
	publish(ctx, r.events, r.logger, EventSlotReleased, SlotEvent{
		Type:       EventSlotReleased,
		SlotID:     slot.ID,
		CourseID:   slot.CourseID,
		OccurredAt: r.now(),
	})
}

// Deactivate снимает слот с публикации; существующая привязка сохраняется
func (r *ScheduleRegistry) Deactivate(ctx context.Context, slotID int64) error {
	if err := r.slots.Deactivate(ctx, slotID); err != nil {
		return fmt.Errorf("deactivate slot: %w", err)
	}

	r.logger.Info("Schedule slot deactivated", zap.Int64("slot_id", slotID))
	return nil
}

// SortSlots упорядочивает слоты: еженедельные по (день недели, время начала),
// разовые по (дата, время начала), затем по ID
func SortSlots(slots []*model.ScheduleSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Kind != b.Kind {
			return a.Kind == model.SlotKindWeekly
		}
		if a.Kind == model.SlotKindWeekly {
			if a.DayOfWeek != b.DayOfWeek {
				return a.DayOfWeek < b.DayOfWeek
			}
		} else if ak, bk := a.DateKey(), b.DateKey(); ak != bk {
			return ak < bk
		}
		as, _ := model.ClockMinutes(a.StartTime)
		bs, _ := model.ClockMinutes(b.StartTime)
		if as != bs {
			return as < bs
		}
		return a.ID < b.ID
	})
}
