package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Интерфейсы хранилищ. Реализованы в repository (PostgreSQL) и repository/memory.

// TxManager выполняет fn атомарно: при ошибке все изменения откатываются
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type SlotStore interface {
	Create(ctx context.Context, slot *model.ScheduleSlot) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleSlot, error)
	ListAvailable(ctx context.Context, courseID int64, kind model.SlotKind) ([]*model.ScheduleSlot, error)
	ListByCourses(ctx context.Context, courseIDs []int64) ([]*model.ScheduleSlot, error)
	// Bind возвращает model.ErrSlotAlreadyBound, если слот уже занят
	Bind(ctx context.Context, slotID, lessonID int64) error
	Release(ctx context.Context, slotID int64) error
	Deactivate(ctx context.Context, slotID int64) error
}

type LessonStore interface {
	Create(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id int64) (*model.Lesson, error)
	ListByCourses(ctx context.Context, courseIDs []int64) ([]*model.Lesson, error)
	Update(ctx context.Context, lesson *model.Lesson) error
	// UpdateUnstarted возвращает *model.TransitionError, если встреча урока уже запускалась
	UpdateUnstarted(ctx context.Context, lesson *model.Lesson) error
	// SetMeetingState пустой status оставляет статус урока без изменений
	SetMeetingState(ctx context.Context, id int64, state model.MeetingState, status model.LessonStatus) error
	Delete(ctx context.Context, id int64) error
}

type SessionStore interface {
	Get(ctx context.Context, lessonID int64) (*model.MeetingSession, error)
	ListByLessons(ctx context.Context, lessonIDs []int64) ([]*model.MeetingSession, error)
	ListStale(ctx context.Context, state model.MeetingState, cutoff time.Time) ([]*model.MeetingSession, error)
	// Save возвращает model.ErrVersionConflict, если версия в хранилище не равна expected
	Save(ctx context.Context, s *model.MeetingSession, expected int64) error
	IncrementParticipants(ctx context.Context, lessonID int64) (int, error)
	DecrementParticipants(ctx context.Context, lessonID int64) (int, error)
	Delete(ctx context.Context, lessonID int64) error
}

type CourseStore interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	ListForUser(ctx context.Context, userID int64) ([]*model.Course, error)
	IsEnrolled(ctx context.Context, courseID, userID int64) (bool, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	SetTimezone(ctx context.Context, id int64, timezone string) error
}

// EventPublisher публикует события жизненного цикла в брокер
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// Room - подтверждённая комната видеовстречи
type Room struct {
	MeetingID string
	URL       string
}

// ConferenceClient создаёт и закрывает комнаты видеовстреч
type ConferenceClient interface {
	CreateRoom(ctx context.Context, meetingID string) (Room, error)
	Dispose(ctx context.Context, meetingID string) error
}
