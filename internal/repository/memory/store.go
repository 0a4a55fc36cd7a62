// Package memory is an in-process implementation of the service stores.
// It backs the tests and the week image demo; production uses the PostgreSQL repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Store holds every table behind one lock.
type Store struct {
	mu          sync.RWMutex
	seq         int64
	slots       map[int64]*model.ScheduleSlot
	lessons     map[int64]*model.Lesson
	sessions    map[int64]*model.MeetingSession
	courses     map[int64]*model.Course
	users       map[int64]*model.User
	enrollments map[int64]map[int64]struct{} // courseID -> userIDs
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{
		slots:       make(map[int64]*model.ScheduleSlot),
		lessons:     make(map[int64]*model.Lesson),
		sessions:    make(map[int64]*model.MeetingSession),
		courses:     make(map[int64]*model.Course),
		users:       make(map[int64]*model.User),
		enrollments: make(map[int64]map[int64]struct{}),
		now:         time.Now,
	}
}

// SetClock replaces the clock used for CreatedAt/UpdatedAt stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Slots() *SlotStore       { return &SlotStore{s} }
func (s *Store) Lessons() *LessonStore   { return &LessonStore{s} }
func (s *Store) Sessions() *SessionStore { return &SessionStore{s} }
func (s *Store) Courses() *CourseStore   { return &CourseStore{s} }
func (s *Store) Users() *UserStore       { return &UserStore{s} }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

type journalKey struct{}

// journal collects undo steps of the mutations made inside WithinTx.
type journal struct {
	mu   sync.Mutex
	undo []func()
}

// WithinTx runs fn and reverts the mutations it made if fn fails.
// Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		j.mu.Lock()
		defer j.mu.Unlock()
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}

// record registers undo for the current transaction. Undo runs with s.mu held.
func record(ctx context.Context, undo func()) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		return
	}
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
