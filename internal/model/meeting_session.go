package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MeetingState string

const (
	MeetingStateIdle     MeetingState = "idle"     // Урок ещё не начат
	MeetingStateStarting MeetingState = "starting" // Ждём подтверждения комнаты
	MeetingStateLive     MeetingState = "live"     // Идёт занятие
	MeetingStateEnded    MeetingState = "ended"    // Завершено; терминально для занятия
)

// WeeklyReopenAfter - сколько должно пройти с начала занятия, чтобы урок еженедельного слота
// можно было запустить снова. Полнедели: более поздний запуск ближе к следующему занятию.
const WeeklyReopenAfter = 84 * time.Hour

// meetingNamespace is the UUIDv5 namespace meeting ids are derived in.
var meetingNamespace = uuid.MustParse("6b1c2f0e-8d1a-5f3e-9c57-2a4d8e0b7f11")

// MeetingIDFor derives the room id of a lesson. The same course and lesson
// always map to the same id, so rejoining reconstructs the same room.
func MeetingIDFor(courseID, lessonID int64) string {
	name := fmt.Sprintf("course:%d/lesson:%d", courseID, lessonID)
	return uuid.NewSHA1(meetingNamespace, []byte(name)).String()
}

// MeetingSession - живая сессия занятия урока (не более одной на урок одновременно)
type MeetingSession struct {
	LessonID            int64        `json:"lesson_id"`
	CourseID            int64        `json:"course_id"`
	MeetingID           string       `json:"meeting_id"`
	State               MeetingState `json:"state"`
	RoomURL             string       `json:"room_url"`
	ActualStartTime     *time.Time   `json:"actual_start_time"`
	ActualEndTime       *time.Time   `json:"actual_end_time"`
	CurrentParticipants int          `json:"current_participants"`
	MaxParticipants     int          `json:"max_participants"` // 0 = без ограничений
	Version             int64        `json:"version"`          // для оптимистичной блокировки
	UpdatedAt           time.Time    `json:"updated_at"`
}

// NewIdleSession returns the implicit session of a lesson that was never started.
func NewIdleSession(courseID, lessonID int64, maxParticipants int) *MeetingSession {
	return &MeetingSession{
		LessonID:        lessonID,
		CourseID:        courseID,
		MeetingID:       MeetingIDFor(courseID, lessonID),
		State:           MeetingStateIdle,
		MaxParticipants: maxParticipants,
	}
}

// Views derive their flags from State instead of keeping their own.

func (s *MeetingSession) IsLive() bool {
	return s.State == MeetingStateLive
}

func (s *MeetingSession) IsStarting() bool {
	return s.State == MeetingStateStarting
}

// HasStarted reports whether start() has ever succeeded or is in flight.
func (s *MeetingSession) HasStarted() bool {
	return s.State != MeetingStateIdle && s.State != ""
}

func (s *MeetingSession) CanJoin() bool {
	return s.State == MeetingStateLive
}

func (s *MeetingSession) IsFinished() bool {
	return s.State == MeetingStateEnded
}

// IsFull reports whether one more participant would exceed capacity.
func (s *MeetingSession) IsFull() bool {
	return s.MaxParticipants > 0 && s.CurrentParticipants >= s.MaxParticipants
}

// Clone returns a copy safe to hand out of a store.
func (s *MeetingSession) Clone() *MeetingSession {
	c := *s
	if s.ActualStartTime != nil {
		t := *s.ActualStartTime
		c.ActualStartTime = &t
	}
	if s.ActualEndTime != nil {
		t := *s.ActualEndTime
		c.ActualEndTime = &t
	}
	return &c
}
