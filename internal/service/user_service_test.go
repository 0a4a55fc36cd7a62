package service

import (
	"context"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

func newUserService(env *testEnv) *UserService {
	return NewUserService(env.store.Users(), env.store.Courses(), env.logger)
}

func TestUserService_RegisterUserIsUpsert(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	first, err := svc.RegisterUser(ctx, 500, "kate", "Катя", "", "ru")
	require.NoError(t, err)

	again, err := svc.RegisterUser(ctx, 500, "kate_new", "Катя", "Смирнова", "ru")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	got, err := svc.GetByTelegramID(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, "kate_new", got.Username)

	_, err = svc.GetByTelegramID(ctx, 404)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_ActorFor(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	actor, err := svc.ActorFor(ctx, env.instructor, env.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleInstructor, actor.Role)
	assert.Equal(t, "Анна", actor.DisplayName)

	actor, err = svc.ActorFor(ctx, env.student, env.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, actor.Role)

	_, err = svc.ActorFor(ctx, env.student, 9999)
	assert.ErrorIs(t, err, model.ErrCourseNotFound)
}

func TestUserService_ActorForOutsiderIsGuest(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	outsider := &model.User{TelegramID: 5, FirstName: "Глеб"}
	require.NoError(t, env.store.Users().Upsert(ctx, outsider))

	actor, err := svc.ActorFor(ctx, outsider, env.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleGuest, actor.Role)
	assert.False(t, actor.Role.CanJoin())

	lesson := env.lesson(t, 1)
	_, err = env.meetings.Start(ctx, lesson.ID, env.actor(env.instructor))
	require.NoError(t, err)
	_, err = env.meetings.Join(ctx, lesson.ID, actor)
	require.ErrorIs(t, err, model.ErrPermission)

	require.NoError(t, env.store.Courses().Enroll(ctx, env.course.ID, outsider.ID))
	actor, err = svc.ActorFor(ctx, outsider, env.course.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, actor.Role)

	params, err := env.meetings.Join(ctx, lesson.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, params.Participants)
}

func TestUserService_SetTimezone(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	require.NoError(t, svc.SetTimezone(ctx, env.student, "Europe/Moscow"))
	assert.Equal(t, "Europe/Moscow", env.student.Timezone)

	stored, err := env.store.Users().GetByID(ctx, env.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", stored.Timezone)

	assert.ErrorIs(t, svc.SetTimezone(ctx, env.student, "Moscow"), model.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetTimezone(ctx, env.student, ""), model.ErrInvalidInput)
	assert.Equal(t, "Europe/Moscow", env.student.Timezone)
}

func TestUserService_ManagedCourses(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env)
	ctx := context.Background()

	co := &model.Course{Title: "Испанский", InstructorID: env.student.ID}
	require.NoError(t, env.store.Courses().Create(ctx, co))
	require.NoError(t, env.store.Courses().AddCoInstructor(ctx, co.ID, env.instructor.ID))

	managed, err := svc.ManagedCourses(ctx, env.instructor)
	require.NoError(t, err)
	assert.Len(t, managed, 2)

	managed, err = svc.ManagedCourses(ctx, env.student)
	require.NoError(t, err)
	require.Len(t, managed, 1, "enrolment alone does not make a course managed")
	assert.Equal(t, co.ID, managed[0].ID)
}
