// Команда week_image рисует демонстрационный календарь недели на данных в памяти.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/app"
	"github.com/Freeeeeet/lesson_scheduler/internal/calendar"
	"github.com/Freeeeeet/lesson_scheduler/internal/conference"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/render"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/mq"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

func main() {
	out := flag.String("o", "week.png", "output PNG file")
	tz := flag.String("tz", "Asia/Bangkok", "course and viewer timezone")
	flag.Parse()

	logger := app.NewLogger("development", "info")
	defer logger.Sync()

	if err := run(context.Background(), *out, *tz, logger); err != nil {
		log.Fatalf("week image: %v", err)
	}
	logger.Info("Week image saved", zap.String("file", *out))
}

func run(ctx context.Context, out, tz string, logger *zap.Logger) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return err
	}

	store := memory.NewStore()
	events := mq.NopPublisher{}

	instructor := &model.User{TelegramID: 1, FirstName: "Анна", Timezone: tz}
	if err := store.Users().Upsert(ctx, instructor); err != nil {
		return err
	}
	course := &model.Course{Title: "Английский B2", Timezone: tz, InstructorID: instructor.ID}
	if err := store.Courses().Create(ctx, course); err != nil {
		return err
	}

	registry := service.NewScheduleRegistry(store.Slots(), events, logger)
	binder := service.NewLessonBinder(store, registry, store.Slots(), store.Lessons(), store.Sessions(), events, logger)

	now := time.Now().In(loc)
	weekStart := render.WeekStart(now)

	weekly := []service.SlotInput{
		{CourseID: course.ID, DayOfWeek: int(time.Monday), StartTime: "09:00", EndTime: "10:00"},
		{CourseID: course.ID, DayOfWeek: int(time.Tuesday), StartTime: "19:00", EndTime: "20:00"},
		{CourseID: course.ID, DayOfWeek: int(time.Thursday), StartTime: "18:30", EndTime: "20:00", DurationText: "1.5 часа"},
	}
	var slots []*model.ScheduleSlot
	for _, in := range weekly {
		slot, err := registry.CreateWeeklySlot(ctx, in)
		if err != nil {
			return err
		}
		slots = append(slots, slot)
	}

	price := 2500
	dated, err := registry.CreateDatedSlot(ctx, service.SlotInput{
		CourseID:        course.ID,
		Date:            weekStart.AddDate(0, 0, 4).Format(time.DateOnly),
		StartTime:       "12:00",
		EndTime:         "13:00",
		IndividualPrice: &price,
	})
	if err != nil {
		return err
	}

	if _, err := binder.Bind(ctx, model.NewLessonDraft(course.ID, "Разговорный клуб"), slots[1].ID); err != nil {
		return err
	}
	lesson, err := binder.Bind(ctx, model.NewLessonDraft(course.ID, "Грамматика"), dated.ID)
	if err != nil {
		return err
	}

	rooms, err := conference.NewJitsiClient("https://meet.jit.si", false, logger)
	if err != nil {
		return err
	}
	meetings := service.NewMeetingController(store.Lessons(), store.Slots(), store.Sessions(), rooms, events, 5*time.Second, logger)

	actor := model.Actor{UserID: instructor.ID, DisplayName: instructor.DisplayName(), Role: course.RoleOf(instructor)}
	if _, err := meetings.Start(ctx, lesson.ID, actor); err != nil {
		return err
	}

	calendarService := service.NewCalendarService(
		store.Courses(), store.Slots(), store.Lessons(), store.Sessions(),
		calendar.NewProjector(calendar.DefaultPalette, logger),
		tz,
		logger,
	)

	week, err := calendarService.Week(ctx, instructor, weekStart)
	if err != nil {
		return err
	}

	img, err := render.WeekImage(week, weekStart, now, loc)
	if err != nil {
		return err
	}
	return os.WriteFile(out, img, 0o644)
}
