package memory

import (
	"context"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type SessionStore struct {
	s *Store
}

func (r *SessionStore) Get(_ context.Context, lessonID int64) (*model.MeetingSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[lessonID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (r *SessionStore) ListByLessons(_ context.Context, lessonIDs []int64) ([]*model.MeetingSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.MeetingSession
	for _, id := range sortedKeys(r.s.sessions) {
		if contains(lessonIDs, id) {
			out = append(out, r.s.sessions[id].Clone())
		}
	}
	return out, nil
}

func (r *SessionStore) ListStale(_ context.Context, state model.MeetingState, cutoff time.Time) ([]*model.MeetingSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.MeetingSession
	for _, id := range sortedKeys(r.s.sessions) {
		session := r.s.sessions[id]
		if session.State == state && session.UpdatedAt.Before(cutoff) {
			out = append(out, session.Clone())
		}
	}
	return out, nil
}

// Save stores a copy of session when the stored version equals expected.
func (r *SessionStore) Save(ctx context.Context, session *model.MeetingSession, expected int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, exists := r.s.sessions[session.LessonID]
	switch {
	case expected == 0 && exists:
		return model.ErrVersionConflict
	case expected != 0 && (!exists || stored.Version != expected):
		return model.ErrVersionConflict
	}

	session.Version = expected + 1
	session.UpdatedAt = r.s.now()
	r.s.sessions[session.LessonID] = session.Clone()

	lessonID := session.LessonID
	record(ctx, func() {
		if exists {
			r.s.sessions[lessonID] = stored
		} else {
			delete(r.s.sessions, lessonID)
		}
	})
	return nil
}

func (r *SessionStore) IncrementParticipants(_ context.Context, lessonID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[lessonID]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	if !session.IsLive() {
		return 0, &model.TransitionError{Op: "join", From: session.State}
	}
	if session.IsFull() {
		return 0, &model.CapacityError{Max: session.MaxParticipants}
	}
	session.CurrentParticipants++
	session.UpdatedAt = r.s.now()
	return session.CurrentParticipants, nil
}

func (r *SessionStore) DecrementParticipants(_ context.Context, lessonID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[lessonID]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	if session.CurrentParticipants > 0 {
		session.CurrentParticipants--
	}
	session.UpdatedAt = r.s.now()
	return session.CurrentParticipants, nil
}

func (r *SessionStore) Delete(ctx context.Context, lessonID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.sessions[lessonID]
	if !ok {
		return nil
	}
	delete(r.s.sessions, lessonID)

	record(ctx, func() { r.s.sessions[lessonID] = stored })
	return nil
}
