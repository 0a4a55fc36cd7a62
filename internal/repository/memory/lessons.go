package memory

import (
	"context"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type LessonStore struct {
	s *Store
}

func (r *LessonStore) Create(ctx context.Context, lesson *model.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	lesson.ID = r.s.nextID()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	c := *lesson
	r.s.lessons[lesson.ID] = &c

	id := lesson.ID
	record(ctx, func() { delete(r.s.lessons, id) })
	return nil
}

func (r *LessonStore) GetByID(_ context.Context, id int64) (*model.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lesson, ok := r.s.lessons[id]
	if !ok {
		return nil, model.ErrLessonNotFound
	}
	c := *lesson
	return &c, nil
}

func (r *LessonStore) ListByCourses(_ context.Context, courseIDs []int64) ([]*model.Lesson, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Lesson
	for _, id := range sortedKeys(r.s.lessons) {
		if lesson := r.s.lessons[id]; contains(courseIDs, lesson.CourseID) {
			c := *lesson
			out = append(out, &c)
		}
	}
	return out, nil
}

// Update writes the mutable fields; ScheduleRef, Status and MeetingState are kept.
func (r *LessonStore) Update(ctx context.Context, lesson *model.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.update(ctx, lesson)
}

// UpdateUnstarted is Update guarded by the lesson's session never having left idle.
func (r *LessonStore) UpdateUnstarted(ctx context.Context, lesson *model.Lesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session, ok := r.s.sessions[lesson.ID]; ok && session.HasStarted() {
		return &model.TransitionError{Op: "change duration", From: session.State}
	}
	return r.update(ctx, lesson)
}

func (r *LessonStore) update(ctx context.Context, lesson *model.Lesson) error {
	stored, ok := r.s.lessons[lesson.ID]
	if !ok {
		return model.ErrLessonNotFound
	}
	prev := *stored

	stored.Title = lesson.Title
	stored.Duration = lesson.Duration
	stored.Price = lesson.Price
	stored.MaxParticipants = lesson.MaxParticipants
	stored.RegistrationDeadlineMinutes = lesson.RegistrationDeadlineMinutes
	stored.UpdatedAt = r.s.now()
	lesson.UpdatedAt = stored.UpdatedAt

	record(ctx, func() { *stored = prev })
	return nil
}

func (r *LessonStore) SetMeetingState(ctx context.Context, id int64, state model.MeetingState, status model.LessonStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.lessons[id]
	if !ok {
		return model.ErrLessonNotFound
	}
	prev := *stored

	stored.MeetingState = state
	if status != "" {
		stored.Status = status
	}
	stored.UpdatedAt = r.s.now()

	record(ctx, func() { *stored = prev })
	return nil
}

func (r *LessonStore) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.lessons[id]
	if !ok {
		return model.ErrLessonNotFound
	}
	delete(r.s.lessons, id)

	record(ctx, func() { r.s.lessons[id] = stored })
	return nil
}
