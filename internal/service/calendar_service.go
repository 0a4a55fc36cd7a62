package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/lesson_scheduler/internal/calendar"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// CalendarService собирает снимок расписания пользователя и проецирует его в события календаря
type CalendarService struct {
	courses   CourseStore
	slots     SlotStore
	lessons   LessonStore
	sessions  SessionStore
	projector *calendar.Projector
	defaultTZ string
	now       func() time.Time
	logger    *zap.Logger
}

func NewCalendarService(
	courses CourseStore,
	slots SlotStore,
	lessons LessonStore,
	sessions SessionStore,
	projector *calendar.Projector,
	defaultTZ string,
	logger *zap.Logger,
) *CalendarService {
	return &CalendarService{
		courses:   courses,
		slots:     slots,
		lessons:   lessons,
		sessions:  sessions,
		projector: projector,
		defaultTZ: defaultTZ,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock подменяет источник текущего времени
func (s *CalendarService) SetClock(now func() time.Time) {
	s.now = now
}

// Now возвращает текущее время сервиса
func (s *CalendarService) Now() time.Time {
	return s.now()
}

// Snapshot - входные данные проекции и курсы, из которых они собраны
type Snapshot struct {
	Input   calendar.Input
	Courses map[int64]*model.Course
}

// Snapshot загружает слоты, уроки и сессии всех курсов пользователя
func (s *CalendarService) Snapshot(ctx context.Context, user *model.User) (*Snapshot, error) {
	courses, err := s.courses.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	snap := &Snapshot{
		Input: calendar.Input{
			CourseTimezones: make(map[int64]string, len(courses)),
			DefaultTimezone: s.defaultTZ,
			ViewerTimezone:  user.Timezone,
			Now:             s.now(),
		},
		Courses: make(map[int64]*model.Course, len(courses)),
	}

	courseIDs := make([]int64, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
		snap.Courses[c.ID] = c
		snap.Input.CourseTimezones[c.ID] = c.Timezone
	}
	if len(courseIDs) == 0 {
		return snap, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slots, err := s.slots.ListByCourses(gctx, courseIDs)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		snap.Input.Slots = slots
		return nil
	})
	g.Go(func() error {
		lessons, err := s.lessons.ListByCourses(gctx, courseIDs)
		if err != nil {
			return fmt.Errorf("list lessons: %w", err)
		}
		snap.Input.Lessons = lessons
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lessonIDs := make([]int64, 0, len(snap.Input.Lessons))
	for _, l := range snap.Input.Lessons {
		lessonIDs = append(lessonIDs, l.ID)
	}
	sessions, err := s.sessions.ListByLessons(ctx, lessonIDs)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	snap.Input.Sessions = sessions

	return snap, nil
}

// Upcoming возвращает ближайшее вхождение каждого слота и урока пользователя
func (s *CalendarService) Upcoming(ctx context.Context, user *model.User) ([]model.CalendarEvent, *Snapshot, error) {
	snap, err := s.Snapshot(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return s.projector.Project(snap.Input), snap, nil
}

// Week возвращает все события недели, начинающейся в weekStart
func (s *CalendarService) Week(ctx context.Context, user *model.User, weekStart time.Time) ([]model.CalendarEvent, error) {
	snap, err := s.Snapshot(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.projector.ProjectRange(snap.Input, weekStart, weekStart.AddDate(0, 0, 7)), nil
}

// Location возвращает часовой пояс, в котором пользователь видит календарь
func (s *CalendarService) Location(user *model.User) *time.Location {
	for _, tz := range []string{user.Timezone, s.defaultTZ} {
		if tz == "" {
			continue
		}
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}
