package model

import "time"

type SlotKind string

const (
	SlotKindWeekly SlotKind = "weekly" // повторяется каждую неделю
	SlotKindDated  SlotKind = "dated"  // разовый слот на конкретную дату
)

// ScheduleSlot - временной слот, который курс предлагает для привязки к уроку
type ScheduleSlot struct {
	ID              int64      `json:"id"`
	CourseID        int64      `json:"course_id"`
	Kind            SlotKind   `json:"kind"`
	DayOfWeek       int        `json:"day_of_week"` // 0 = Sunday, 6 = Saturday (только weekly)
	Date            *time.Time `json:"date"`        // календарная дата (только dated)
	StartTime       string     `json:"start_time"`  // "HH:MM", время курса
	EndTime         string     `json:"end_time"`    // "HH:MM", время курса
	DurationMinutes int        `json:"duration_minutes"`
	IndividualPrice *int       `json:"individual_price"` // в копейках/центах, только dated
	IsActive        bool       `json:"is_active"`
	BoundLessonID   *int64     `json:"bound_lesson_id"` // nil - слот свободен
	CreatedAt       time.Time  `json:"created_at"`
}

// IsBound reports whether a lesson already owns the slot.
func (s *ScheduleSlot) IsBound() bool {
	return s.BoundLessonID != nil
}

// IsAvailable reports whether the slot may be offered for binding.
func (s *ScheduleSlot) IsAvailable() bool {
	return s.IsActive && s.BoundLessonID == nil
}

// DefaultPrice is the price a lesson inherits from the slot: the individual
// price of a dated slot, zero for everything else.
func (s *ScheduleSlot) DefaultPrice() int {
	if s.Kind == SlotKindDated && s.IndividualPrice != nil {
		return *s.IndividualPrice
	}
	return 0
}

// DateKey returns the slot date as "2006-01-02", or "" for weekly slots.
func (s *ScheduleSlot) DateKey() string {
	if s.Date == nil {
		return ""
	}
	return s.Date.Format("2006-01-02")
}
