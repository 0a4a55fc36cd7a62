package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Routing keys of lifecycle events
const (
	EventLessonBound        = "lesson.bound"
	EventLessonDeleted      = "lesson.deleted"
	EventSlotReleased       = "slot.released"
	EventMeetingStarted     = "meeting.started"
	EventMeetingStartFailed = "meeting.start_failed"
	EventMeetingEnded       = "meeting.ended"
)

type LessonEvent struct {
	Type       string    `json:"type"`
	LessonID   int64     `json:"lesson_id"`
	CourseID   int64     `json:"course_id"`
	SlotID     int64     `json:"slot_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SlotEvent struct {
	Type       string    `json:"type"`
	SlotID     int64     `json:"slot_id"`
	CourseID   int64     `json:"course_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type MeetingEvent struct {
	Type       string             `json:"type"`
	LessonID   int64              `json:"lesson_id"`
	CourseID   int64              `json:"course_id"`
	MeetingID  string             `json:"meeting_id"`
	State      model.MeetingState `json:"state"`
	RoomURL    string             `json:"room_url,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// publish отправляет событие; ошибка брокера только логируется и не влияет на операцию
func publish(ctx context.Context, pub EventPublisher, logger *zap.Logger, key string, v any) {
	if pub == nil {
		return
	}
	if err := pub.PublishJSON(ctx, key, v); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("routing_key", key),
			zap.Error(err),
		)
	}
}
