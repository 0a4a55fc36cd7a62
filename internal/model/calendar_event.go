package model

import "time"

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"    // идёт сейчас
	EventStatusDone      EventStatus = "done"      // завершено
	EventStatusAvailable EventStatus = "available" // свободный weekly-слот
	EventStatusScheduled EventStatus = "scheduled" // запланировано
)

// CalendarEvent is derived for rendering and never persisted.
type CalendarEvent struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Status      EventStatus `json:"status"`
	StatusColor string      `json:"status_color"`
	Title       string      `json:"title"`
	LessonID    int64       `json:"lesson_id"` // 0 для свободного слота
	CourseID    int64       `json:"course_id"`
	SlotID      int64       `json:"slot_id"`
}
