package model

import "time"

type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled" // Запланирован
	LessonStatusCompleted LessonStatus = "completed" // Проведён
	LessonStatusCanceled  LessonStatus = "canceled"  // Отменён
)

type Lesson struct {
	ID                          int64        `json:"id"`
	CourseID                    int64        `json:"course_id"`
	ScheduleRef                 int64        `json:"schedule_ref"` // слот, к которому привязан урок; не меняется
	Title                       string       `json:"title"`
	Duration                    int          `json:"duration"` // в минутах
	Price                       int          `json:"price"`    // в копейках/центах
	MaxParticipants             int          `json:"max_participants"` // 0 = без ограничений
	RegistrationDeadlineMinutes int          `json:"registration_deadline_minutes"`
	Status                      LessonStatus `json:"status"`
	MeetingState                MeetingState `json:"meeting_state"`
	CreatedAt                   time.Time    `json:"created_at"`
	UpdatedAt                   time.Time    `json:"updated_at"`
}

// HasCapacityLimit reports whether MaxParticipants restricts joins.
func (l *Lesson) HasCapacityLimit() bool {
	return l.MaxParticipants > 0
}

// IsCompleted reports whether the lesson has been held.
func (l *Lesson) IsCompleted() bool {
	return l.Status == LessonStatusCompleted
}

// RegistrationClosesAt returns the instant registration closes for an occurrence starting at start.
func (l *Lesson) RegistrationClosesAt(start time.Time) time.Time {
	return start.Add(-time.Duration(l.RegistrationDeadlineMinutes) * time.Minute)
}

// LessonUpdate описывает изменяемые поля урока. ScheduleRef сюда намеренно не входит.
type LessonUpdate struct {
	Title                       *string
	Duration                    *int
	Price                       *int
	MaxParticipants             *int
	RegistrationDeadlineMinutes *int
}
