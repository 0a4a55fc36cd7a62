package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// LessonBinder привязывает уроки к слотам расписания и следит,
// чтобы привязка не менялась после создания урока
type LessonBinder struct {
	tx       TxManager
	registry *ScheduleRegistry
	slots    SlotStore
	lessons  LessonStore
	sessions SessionStore
	events   EventPublisher
	now      func() time.Time
	logger   *zap.Logger
}

func NewLessonBinder(
	tx TxManager,
	registry *ScheduleRegistry,
	slots SlotStore,
	lessons LessonStore,
	sessions SessionStore,
	events EventPublisher,
	logger *zap.Logger,
) *LessonBinder {
	return &LessonBinder{
		tx:       tx,
		registry: registry,
		slots:    slots,
		lessons:  lessons,
		sessions: sessions,
		events:   events,
		now:      time.Now,
		logger:   logger,
	}
}

// checkSlot проверяет, что слот можно привязать к уроку курса
func checkSlot(slot *model.ScheduleSlot, courseID int64) error {
	if slot.CourseID != courseID {
		return model.ErrCourseMismatch
	}
	if !slot.IsActive {
		return model.ErrSlotInactive
	}
	if slot.IsBound() {
		return model.ErrSlotAlreadyBound
	}
	return nil
}

// SelectSlot выбирает слот в черновике и заполняет цену и длительность,
// которые автор не менял вручную. Слот при этом не резервируется.
func (b *LessonBinder) SelectSlot(ctx context.Context, draft *model.LessonDraft, slotID int64) error {
	slot, err := b.slots.GetByID(ctx, slotID)
	if err != nil {
		return fmt.Errorf("select slot: %w", err)
	}

	if err := checkSlot(slot, draft.CourseID); err != nil {
		return fmt.Errorf("select slot: %w", err)
	}

	draft.ApplySlot(slot)
	return nil
}

func validateDraft(draft *model.LessonDraft) error {
	switch {
	case draft.CourseID <= 0:
		return invalidInput("course_id is required")
	case strings.TrimSpace(draft.Title) == "":
		return invalidInput("title is required")
	case draft.Duration <= 0:
		return invalidInput("duration must be positive")
	case draft.Price < 0:
		return invalidInput("price must not be negative")
	case draft.MaxParticipants < 0:
		return invalidInput("max_participants must not be negative")
	case draft.RegistrationDeadlineMinutes < 0:
		return invalidInput("registration_deadline_minutes must not be negative")
	}
	return nil
}

// Bind создаёт урок из черновика и привязывает к нему слот в одной транзакции.
// Цена и длительность берутся из слота, если автор не задал их вручную.
func (b *LessonBinder) Bind(ctx context.Context, draft *model.LessonDraft, slotID int64) (*model.Lesson, error) {
	var lesson *model.Lesson

	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := b.slots.GetByID(ctx, slotID)
		if err != nil {
			return err
		}

		if err := checkSlot(slot, draft.CourseID); err != nil {
			return err
		}

		draft.ApplySlot(slot)
		if err := validateDraft(draft); err != nil {
			return err
		}

		lesson = &model.Lesson{
			CourseID:                    draft.CourseID,
			ScheduleRef:                 slot.ID,
			Title:                       strings.TrimSpace(draft.Title),
			Duration:                    draft.Duration,
			Price:                       draft.Price,
			MaxParticipants:             draft.MaxParticipants,
			RegistrationDeadlineMinutes: draft.RegistrationDeadlineMinutes,
			Status:                      model.LessonStatusScheduled,
			MeetingState:                model.MeetingStateIdle,
		}
		if err := b.lessons.Create(ctx, lesson); err != nil {
			return err
		}

		// Оптимистичная блокировка: слот мог занять параллельный запрос
		return b.slots.Bind(ctx, slot.ID, lesson.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("bind lesson: %w", err)
	}

	b.logger.Info("Lesson bound to slot",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("course_id", lesson.CourseID),
		zap.Int("duration", lesson.Duration),
		zap.Int("price", lesson.Price),
	)

	publish(ctx, b.events, b.logger, EventLessonBound, LessonEvent{
		Type:       EventLessonBound,
		LessonID:   lesson.ID,
		CourseID:   lesson.CourseID,
		SlotID:     lesson.ScheduleRef,
		OccurredAt: b.now(),
	})

	return lesson, nil
}

// sessionState возвращает состояние встречи урока; отсутствие сессии означает idle
func (b *LessonBinder) sessionState(ctx context.Context, lessonID int64) (*model.MeetingSession, error) {
	session, err := b.sessions.Get(ctx, lessonID)
	if errors.Is(err, model.ErrSessionNotFound) {
		return &model.MeetingSession{LessonID: lessonID, State: model.MeetingStateIdle}, nil
	}
	return session, err
}

// UpdateLesson меняет редактируемые поля урока. Привязка к слоту не меняется никогда,
// длительность нельзя менять после начала встречи.
func (b *LessonBinder) UpdateLesson(ctx context.Context, lessonID int64, upd model.LessonUpdate) (*model.Lesson, error) {
	lesson, err := b.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	session, err := b.sessionState(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, invalidInput("title is required")
		}
		lesson.Title = strings.TrimSpace(*upd.Title)
	}

	durationChanged := upd.Duration != nil && *upd.Duration != lesson.Duration
	if durationChanged {
		if session.HasStarted() {
			return nil, fmt.Errorf("update lesson: %w", &model.TransitionError{Op: "change duration", From: session.State})
		}
		if *upd.Duration <= 0 {
			return nil, invalidInput("duration must be positive")
		}
		lesson.Duration = *upd.Duration
	}

	if upd.Price != nil {
		if *upd.Price < 0 {
			return nil, invalidInput("price must not be negative")
		}
		lesson.Price = *upd.Price
	}

	if upd.MaxParticipants != nil {
		limit := *upd.MaxParticipants
		if limit < 0 {
			return nil, invalidInput("max_participants must not be negative")
		}
		if session.IsLive() && limit > 0 && limit < session.CurrentParticipants {
			return nil, fmt.Errorf("update lesson: %w", &model.CapacityError{Max: limit})
		}
		lesson.MaxParticipants = limit
	}

	if upd.RegistrationDeadlineMinutes != nil {
		if *upd.RegistrationDeadlineMinutes < 0 {
			return nil, invalidInput("registration_deadline_minutes must not be negative")
		}
		lesson.RegistrationDeadlineMinutes = *upd.RegistrationDeadlineMinutes
	}

	// Сессию читали без блокировки встречи: смену длительности страхует условие в самом UPDATE
	save := b.lessons.Update
	if durationChanged {
		save = b.lessons.UpdateUnstarted
	}
	if err := save(ctx, lesson); err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}

	b.logger.Info("Lesson updated",
		zap.Int64("lesson_id", lesson.ID),
		zap.Int64("schedule_ref", lesson.ScheduleRef),
	)

	return lesson, nil
}

// DeleteLesson удаляет урок и освобождает его слот в одной транзакции.
// Урок с идущей или запускаемой встречей удалить нельзя.
func (b *LessonBinder) DeleteLesson(ctx context.Context, lessonID int64) error {
	var (
		lesson *model.Lesson
		slot   *model.ScheduleSlot
	)

	err := b.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		lesson, err = b.lessons.GetByID(ctx, lessonID)
		if err != nil {
			return err
		}

		session, err := b.sessionState(ctx, lessonID)
		if err != nil {
			return err
		}
		if session.IsStarting() || session.IsLive() {
			return &model.TransitionError{Op: "delete lesson", From: session.State}
		}

		if err := b.sessions.Delete(ctx, lessonID); err != nil {
			return err
		}

		slot, err = b.registry.release(ctx, lesson.ScheduleRef)
		if err != nil && !errors.Is(err, model.ErrSlotNotFound) {
			return err
		}

		return b.lessons.Delete(ctx, lessonID)
	})
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}

	b.logger.Info("Lesson deleted",
		zap.Int64("lesson_id", lessonID),
		zap.Int64("slot_id", lesson.ScheduleRef),
	)

	publish(ctx, b.events, b.logger, EventLessonDeleted, LessonEvent{
		Type:       EventLessonDeleted,
		LessonID:   lessonID,
		CourseID:   lesson.CourseID,
		SlotID:     lesson.ScheduleRef,
		OccurredAt: b.now(),
	})
	if slot != nil {
		b.registry.publishReleased(ctx, slot)
	}

	return nil
}
