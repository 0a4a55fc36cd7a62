package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
)

// recordingPublisher запоминает опубликованные события
type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, v)
	return p.err
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// fakeConference выдаёт комнаты без сети; delay и err управляют подтверждением
type fakeConference struct {
	mu       sync.Mutex
	created  map[string]int
	disposed map[string]int
	delay    time.Duration
	err      error
}

func newFakeConference() *fakeConference {
	return &fakeConference{
		created:  make(map[string]int),
		disposed: make(map[string]int),
	}
}

func (c *fakeConference) CreateRoom(ctx context.Context, meetingID string) (Room, error) {
	c.mu.Lock()
	c.created[meetingID]++
	delay, err := c.delay, c.err
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Room{}, ctx.Err()
		}
	}
	if err != nil {
		return Room{}, err
	}
	return Room{MeetingID: meetingID, URL: "https://meet.example.org/" + meetingID}, nil
}

func (c *fakeConference) Dispose(_ context.Context, meetingID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disposed[meetingID]++
	return nil
}

func (c *fakeConference) Created(meetingID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.created[meetingID]
}

func (c *fakeConference) Disposed(meetingID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed[meetingID]
}

// flakySessions проваливает Save с номером failOn
type flakySessions struct {
	SessionStore
	mu     sync.Mutex
	saves  int
	failOn int
	err    error
}

func (s *flakySessions) Save(ctx context.Context, session *model.MeetingSession, expected int64) error {
	s.mu.Lock()
	s.saves++
	fail := s.saves == s.failOn
	s.mu.Unlock()

	if fail {
		return s.err
	}
	return s.SessionStore.Save(ctx, session, expected)
}

// staleSnapshot добавляет к ListStale сессии, которые успели измениться после выборки
type staleSnapshot struct {
	SessionStore
	extra []*model.MeetingSession
}

func (s staleSnapshot) ListStale(ctx context.Context, state model.MeetingState, cutoff time.Time) ([]*model.MeetingSession, error) {
	list, err := s.SessionStore.ListStale(ctx, state, cutoff)
	return append(list, s.extra...), err
}

// unstartedView всегда видит сессию урока в idle, как чтение до параллельного Start
type unstartedView struct {
	SessionStore
}

func (unstartedView) Get(context.Context, int64) (*model.MeetingSession, error) {
	return nil, model.ErrSessionNotFound
}

type testEnv struct {
	store    *memory.Store
	events   *recordingPublisher
	rooms    *fakeConference
	registry *ScheduleRegistry
	binder   *LessonBinder
	meetings *MeetingController
	logger   *zap.Logger

	instructor *model.User
	student    *model.User
	course     *model.Course
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		store:  memory.NewStore(),
		events: &recordingPublisher{},
		rooms:  newFakeConference(),
		logger: zaptest.NewLogger(t),
	}

	env.registry = NewScheduleRegistry(env.store.Slots(), env.events, env.logger)
	env.binder = NewLessonBinder(env.store, env.registry, env.store.Slots(), env.store.Lessons(), env.store.Sessions(), env.events, env.logger)
	env.meetings = NewMeetingController(env.store.Lessons(), env.store.Slots(), env.store.Sessions(), env.rooms, env.events, time.Second, env.logger)

	env.instructor = &model.User{TelegramID: 1, FirstName: "Анна"}
	require.NoError(t, env.store.Users().Upsert(ctx, env.instructor))
	env.student = &model.User{TelegramID: 2, FirstName: "Борис"}
	require.NoError(t, env.store.Users().Upsert(ctx, env.student))

	env.course = &model.Course{Title: "Английский", Timezone: "Asia/Bangkok", InstructorID: env.instructor.ID}
	require.NoError(t, env.store.Courses().Create(ctx, env.course))
	require.NoError(t, env.store.Courses().Enroll(ctx, env.course.ID, env.student.ID))

	return env
}

func (env *testEnv) weeklySlot(t *testing.T, dow int, start, end string) *model.ScheduleSlot {
	t.Helper()
	slot, err := env.registry.CreateWeeklySlot(context.Background(), SlotInput{
		CourseID:  env.course.ID,
		DayOfWeek: dow,
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return slot
}

func (env *testEnv) datedSlot(t *testing.T, date, start, end string, price *int) *model.ScheduleSlot {
	t.Helper()
	slot, err := env.registry.CreateDatedSlot(context.Background(), SlotInput{
		CourseID:        env.course.ID,
		Date:            date,
		StartTime:       start,
		EndTime:         end,
		IndividualPrice: price,
	})
	require.NoError(t, err)
	return slot
}

// lesson создаёт урок на новом еженедельном слоте
func (env *testEnv) lesson(t *testing.T, maxParticipants int) *model.Lesson {
	t.Helper()
	slot := env.weeklySlot(t, 2, "18:00", "19:00")
	draft := model.NewLessonDraft(env.course.ID, "Грамматика")
	draft.MaxParticipants = maxParticipants
	lesson, err := env.binder.Bind(context.Background(), draft, slot.ID)
	require.NoError(t, err)
	return lesson
}

// datedLesson создаёт урок на разовом слоте
func (env *testEnv) datedLesson(t *testing.T) *model.Lesson {
	t.Helper()
	slot := env.datedSlot(t, "2026-10-20", "18:00", "19:00", nil)
	lesson, err := env.binder.Bind(context.Background(), model.NewLessonDraft(env.course.ID, "Разовый урок"), slot.ID)
	require.NoError(t, err)
	return lesson
}

func (env *testEnv) actor(user *model.User) model.Actor {
	return model.Actor{UserID: user.ID, DisplayName: user.DisplayName(), Role: env.course.RoleOf(user)}
}

func intPtr(v int) *int { return &v }

var (
	errRoomDown  = errors.New("conference server unavailable")
	errConnReset = errors.New("connection reset")
)
