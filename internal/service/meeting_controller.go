package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

const tracerName = "github.com/Freeeeeet/lesson_scheduler/internal/service"

// JoinParams - всё, что нужно клиенту, чтобы войти в комнату
type JoinParams struct {
	RoomID       string `json:"room_id"`
	RoomURL      string `json:"room_url"`
	DisplayName  string `json:"display_name"`
	IsModerator  bool   `json:"is_moderator"`
	Participants int    `json:"participants"`
}

// MeetingController ведёт жизненный цикл встречи урока:
//
//	idle --Start--> starting --подтверждение комнаты--> live --End--> ended
//	starting --ошибка/таймаут--> idle
//	ended --Start на следующем занятии еженедельного слота--> starting
//
// Переходы одного урока выполняются строго последовательно, а версия сессии
// защищает от гонок между экземплярами сервиса.
type MeetingController struct {
	lessons        LessonStore
	slots          SlotStore
	sessions       SessionStore
	conference     ConferenceClient
	events         EventPublisher
	locks          *keyedMutex
	confirmTimeout time.Duration
	now            func() time.Time
	tracer         trace.Tracer
	logger         *zap.Logger
}

func NewMeetingController(
	lessons LessonStore,
	slots SlotStore,
	sessions SessionStore,
	conference ConferenceClient,
	events EventPublisher,
	confirmTimeout time.Duration,
	logger *zap.Logger,
) *MeetingController {
	return &MeetingController{
		lessons:        lessons,
		slots:          slots,
		sessions:       sessions,
		conference:     conference,
		events:         events,
		locks:          newKeyedMutex(),
		confirmTimeout: confirmTimeout,
		now:            time.Now,
		tracer:         otel.Tracer(tracerName),
		logger:         logger,
	}
}

func (c *MeetingController) startSpan(ctx context.Context, name string, lessonID int64) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("lesson.id", lessonID)))
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// load возвращает урок и его сессию; если сессии ещё нет, возвращается idle-заглушка с версией 0
func (c *MeetingController) load(ctx context.Context, lessonID int64) (*model.Lesson, *model.MeetingSession, error) {
	lesson, err := c.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, nil, err
	}

	session, err := c.sessions.Get(ctx, lessonID)
	if errors.Is(err, model.ErrSessionNotFound) {
		return lesson, model.NewIdleSession(lesson.CourseID, lesson.ID, lesson.MaxParticipants), nil
	}
	if err != nil {
		return nil, nil, err
	}

	return lesson, session, nil
}

// Session возвращает текущую сессию урока
func (c *MeetingController) Session(ctx context.Context, lessonID int64) (*model.MeetingSession, error) {
	_, session, err := c.load(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get meeting session: %w", err)
	}
	return session, nil
}

// Start запускает встречу. Повторный вызов во время запуска или встречи
// возвращает существующую сессию, не создавая вторую комнату.
func (c *MeetingController) Start(ctx context.Context, lessonID int64, actor model.Actor) (session *model.MeetingSession, err error) {
	ctx, span := c.startSpan(ctx, "meeting.start", lessonID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.CanManageMeeting() {
		return nil, fmt.Errorf("start meeting: %w", model.ErrPermission)
	}

	unlock := c.locks.Lock(lessonID)
	defer unlock()

	lesson, session, err := c.load(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("start meeting: %w", err)
	}

	startedAt := c.now()
	reopened := false

	switch session.State {
	case model.MeetingStateStarting, model.MeetingStateLive:
		return session, nil
	case model.MeetingStateEnded:
		ok, err := c.nextOccurrence(ctx, lesson, session, startedAt)
		if err != nil {
			return nil, fmt.Errorf("start meeting: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("start meeting: %w", &model.TransitionError{Op: "start", From: session.State})
		}
		reopened = true
	}

	expected := session.Version
	session.MeetingID = model.MeetingIDFor(lesson.CourseID, lesson.ID)
	session.State = model.MeetingStateStarting
	session.RoomURL = ""
	session.ActualStartTime = &startedAt
	session.ActualEndTime = nil
	session.CurrentParticipants = 0
	session.MaxParticipants = lesson.MaxParticipants

	if err := c.sessions.Save(ctx, session, expected); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			// Другой экземпляр успел начать встречу раньше
			return c.existingStart(ctx, lessonID)
		}
		return nil, fmt.Errorf("start meeting: %w", err)
	}
	if reopened {
		c.mirrorState(ctx, lessonID, model.MeetingStateStarting, model.LessonStatusScheduled)
	} else {
		c.mirrorState(ctx, lessonID, model.MeetingStateStarting, "")
	}

	span.SetAttributes(attribute.String("meeting.id", session.MeetingID))
	c.logger.Info("Meeting starting",
		zap.Int64("lesson_id", lessonID),
		zap.String("meeting_id", session.MeetingID),
		zap.Int64("actor_id", actor.UserID),
		zap.Bool("next_occurrence", reopened),
	)

	room, err := c.confirmRoom(ctx, session.MeetingID)
	if err != nil {
		c.rollbackStart(ctx, session, err)
		return nil, fmt.Errorf("start meeting: %w", err)
	}

	expected = session.Version
	session.State = model.MeetingStateLive
	session.RoomURL = room.URL
	if err := c.sessions.Save(ctx, session, expected); err != nil {
		// В базе осталась версия starting: без отката повторный Start вернул бы её как успех
		session.State = model.MeetingStateStarting
		session.RoomURL = ""
		session.Version = expected
		c.rollbackStart(ctx, session, err)
		c.disposeRoom(ctx, session.MeetingID)
		return nil, fmt.Errorf("start meeting: %w", err)
	}
	c.mirrorState(ctx, lessonID, model.MeetingStateLive, "")

	c.logger.Info("Meeting live",
		zap.Int64("lesson_id", lessonID),
		zap.String("meeting_id", session.MeetingID),
		zap.String("room_url", session.RoomURL),
	)

	publish(ctx, c.events, c.logger, EventMeetingStarted, c.meetingEvent(EventMeetingStarted, session, ""))

	return session, nil
}

// nextOccurrence сообщает, можно ли открыть завершённую сессию заново: урок еженедельного
// слота проводится каждую неделю, и каждое занятие получает свою сессию.
// Занятие считается новым, если с начала прошлого прошло не меньше model.WeeklyReopenAfter.
func (c *MeetingController) nextOccurrence(ctx context.Context, lesson *model.Lesson, session *model.MeetingSession, now time.Time) (bool, error) {
	slot, err := c.slots.GetByID(ctx, lesson.ScheduleRef)
	if err != nil {
		return false, err
	}
	if slot.Kind != model.SlotKindWeekly {
		return false, nil
	}
	return session.ActualStartTime == nil || now.Sub(*session.ActualStartTime) >= model.WeeklyReopenAfter, nil
}

func (c *MeetingController) existingStart(ctx context.Context, lessonID int64) (*model.MeetingSession, error) {
	session, err := c.sessions.Get(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("start meeting: %w", err)
	}
	if session.IsStarting() || session.IsLive() {
		return session, nil
	}
	return nil, fmt.Errorf("start meeting: %w", &model.TransitionError{Op: "start", From: session.State})
}

// confirmRoom создаёт комнату и ждёт подтверждения не дольше confirmTimeout
func (c *MeetingController) confirmRoom(ctx context.Context, meetingID string) (Room, error) {
	confirmCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	room, err := c.conference.CreateRoom(confirmCtx, meetingID)
	if err == nil && confirmCtx.Err() == nil {
		return room, nil
	}

	if ctx.Err() == nil && errors.Is(confirmCtx.Err(), context.DeadlineExceeded) {
		c.disposeRoom(ctx, meetingID)
		return Room{}, model.ErrConfirmTimeout
	}
	if err == nil {
		err = confirmCtx.Err()
	}
	return Room{}, fmt.Errorf("create room: %w", err)
}

// rollbackStart возвращает запускаемую встречу в idle. Выполняется даже если ctx уже отменён.
// false - сессию сохранить не удалось.
func (c *MeetingController) rollbackStart(ctx context.Context, session *model.MeetingSession, cause error) bool {
	ctx = context.WithoutCancel(ctx)

	expected := session.Version
	session.State = model.MeetingStateIdle
	session.RoomURL = ""
	session.ActualStartTime = nil
	session.CurrentParticipants = 0

	if err := c.sessions.Save(ctx, session, expected); err != nil {
		c.logger.Error("Failed to roll back meeting start",
			zap.Int64("lesson_id", session.LessonID),
			zap.Error(err),
		)
		return false
	}
	c.mirrorState(ctx, session.LessonID, model.MeetingStateIdle, "")

	c.logger.Warn("Meeting start failed, rolled back to idle",
		zap.Int64("lesson_id", session.LessonID),
		zap.String("meeting_id", session.MeetingID),
		zap.Error(cause),
	)

	publish(ctx, c.events, c.logger, EventMeetingStartFailed, c.meetingEvent(EventMeetingStartFailed, session, cause.Error()))
	return true
}

// Fail переводит запускаемую встречу обратно в idle (сигнал об ошибке видеовиджета).
// Для idle это пустая операция.
func (c *MeetingController) Fail(ctx context.Context, lessonID int64, reason string) (err error) {
	ctx, span := c.startSpan(ctx, "meeting.fail", lessonID)
	defer func() { finishSpan(span, err) }()

	_, err = c.failStarting(ctx, lessonID, reason, time.Time{})
	return err
}

// failStarting откатывает сессию в состоянии starting и сообщает, был ли откат.
// Ненулевой cutoff ограничивает откат сессиями, которые не обновлялись с момента cutoff.
func (c *MeetingController) failStarting(ctx context.Context, lessonID int64, reason string, cutoff time.Time) (bool, error) {
	unlock := c.locks.Lock(lessonID)
	defer unlock()

	_, session, err := c.load(ctx, lessonID)
	if err != nil {
		return false, fmt.Errorf("fail meeting: %w", err)
	}

	switch session.State {
	case model.MeetingStateIdle:
		return false, nil
	case model.MeetingStateStarting:
	default:
		if !cutoff.IsZero() {
			return false, nil
		}
		return false, fmt.Errorf("fail meeting: %w", &model.TransitionError{Op: "fail", From: session.State})
	}

	if !cutoff.IsZero() && !session.UpdatedAt.Before(cutoff) {
		return false, nil
	}

	if !c.rollbackStart(ctx, session, errors.New(reason)) {
		return false, fmt.Errorf("fail meeting: %w", model.ErrVersionConflict)
	}
	c.disposeRoom(ctx, session.MeetingID)
	return true, nil
}

// FailStale откатывает встречи, зависшие в starting дольше olderThan
// (например, процесс упал до подтверждения комнаты). Возвращает число откатов.
func (c *MeetingController) FailStale(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := c.now().Add(-olderThan)

	stale, err := c.sessions.ListStale(ctx, model.MeetingStateStarting, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale meetings: %w", err)
	}

	failed := 0
	for _, s := range stale {
		rolledBack, err := c.failStarting(ctx, s.LessonID, "confirmation never arrived", cutoff)
		if err != nil {
			c.logger.Error("Failed to roll back stale meeting",
				zap.Int64("lesson_id", s.LessonID),
				zap.Error(err),
			)
			continue
		}
		if rolledBack {
			failed++
		}
	}

	return failed, nil
}

// Join добавляет участника в идущую встречу с атомарной проверкой вместимости
func (c *MeetingController) Join(ctx context.Context, lessonID int64, actor model.Actor) (params *JoinParams, err error) {
	ctx, span := c.startSpan(ctx, "meeting.join", lessonID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.CanJoin() {
		return nil, fmt.Errorf("join meeting: %w", model.ErrPermission)
	}

	session, err := c.sessions.Get(ctx, lessonID)
	if errors.Is(err, model.ErrSessionNotFound) {
		if _, err := c.lessons.GetByID(ctx, lessonID); err != nil {
			return nil, fmt.Errorf("join meeting: %w", err)
		}
		return nil, fmt.Errorf("join meeting: %w", &model.TransitionError{Op: "join", From: model.MeetingStateIdle})
	}
	if err != nil {
		return nil, fmt.Errorf("join meeting: %w", err)
	}

	if !session.CanJoin() {
		return nil, fmt.Errorf("join meeting: %w", &model.TransitionError{Op: "join", From: session.State})
	}

	count, err := c.sessions.IncrementParticipants(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("join meeting: %w", err)
	}

	c.logger.Info("Participant joined meeting",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("user_id", actor.UserID),
		zap.Int("participants", count),
	)

	return &JoinParams{
		RoomID:       session.MeetingID,
		RoomURL:      session.RoomURL,
		DisplayName:  actor.DisplayName,
		IsModerator:  actor.Role.CanManageMeeting(),
		Participants: count,
	}, nil
}

// Leave уменьшает счётчик участников (не ниже нуля); состояние встречи не меняется
func (c *MeetingController) Leave(ctx context.Context, lessonID int64, actor model.Actor) (count int, err error) {
	ctx, span := c.startSpan(ctx, "meeting.leave", lessonID)
	defer func() { finishSpan(span, err) }()

	count, err = c.sessions.DecrementParticipants(ctx, lessonID)
	if err != nil {
		return 0, fmt.Errorf("leave meeting: %w", err)
	}

	c.logger.Info("Participant left meeting",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("user_id", actor.UserID),
		zap.Int("participants", count),
	)

	return count, nil
}

// End завершает встречу и отмечает урок проведённым. Повторный вызов ничего не делает.
func (c *MeetingController) End(ctx context.Context, lessonID int64, actor model.Actor) (session *model.MeetingSession, err error) {
	ctx, span := c.startSpan(ctx, "meeting.end", lessonID)
	defer func() { finishSpan(span, err) }()

	if !actor.Role.CanManageMeeting() {
		return nil, fmt.Errorf("end meeting: %w", model.ErrPermission)
	}

	unlock := c.locks.Lock(lessonID)
	defer unlock()

	_, session, err = c.load(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("end meeting: %w", err)
	}

	switch session.State {
	case model.MeetingStateEnded:
		return session, nil
	case model.MeetingStateIdle:
		return nil, fmt.Errorf("end meeting: %w", &model.TransitionError{Op: "end", From: session.State})
	}

	endedAt := c.now()
	expected := session.Version
	session.State = model.MeetingStateEnded
	session.ActualEndTime = &endedAt
	session.CurrentParticipants = 0

	if err := c.sessions.Save(ctx, session, expected); err != nil {
		if errors.Is(err, model.ErrVersionConflict) {
			if current, getErr := c.sessions.Get(ctx, lessonID); getErr == nil && current.IsFinished() {
				return current, nil
			}
		}
		return nil, fmt.Errorf("end meeting: %w", err)
	}
	c.mirrorState(ctx, lessonID, model.MeetingStateEnded, model.LessonStatusCompleted)
	c.disposeRoom(ctx, session.MeetingID)

	c.logger.Info("Meeting ended",
		zap.Int64("lesson_id", lessonID),
		zap.String("meeting_id", session.MeetingID),
		zap.Int64("actor_id", actor.UserID),
	)

	publish(ctx, c.events, c.logger, EventMeetingEnded, c.meetingEvent(EventMeetingEnded, session, ""))

	return session, nil
}

// mirrorState обновляет копию состояния в уроке; источник истины - сессия
func (c *MeetingController) mirrorState(ctx context.Context, lessonID int64, state model.MeetingState, status model.LessonStatus) {
	if err := c.lessons.SetMeetingState(ctx, lessonID, state, status); err != nil {
		c.logger.Error("Failed to mirror meeting state to lesson",
			zap.Int64("lesson_id", lessonID),
			zap.String("state", string(state)),
			zap.Error(err),
		)
	}
}

func (c *MeetingController) disposeRoom(ctx context.Context, meetingID string) {
	if err := c.conference.Dispose(context.WithoutCancel(ctx), meetingID); err != nil {
		c.logger.Warn("Failed to dispose conference room",
			zap.String("meeting_id", meetingID),
			zap.Error(err),
		)
	}
}

func (c *MeetingController) meetingEvent(kind string, s *model.MeetingSession, reason string) MeetingEvent {
	return MeetingEvent{
		Type:       kind,
		LessonID:   s.LessonID,
		CourseID:   s.CourseID,
		MeetingID:  s.MeetingID,
		State:      s.State,
		RoomURL:    s.RoomURL,
		Reason:     reason,
		OccurredAt: c.now(),
	}
}
