package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type UserService struct {
	users   UserStore
	courses CourseStore
	logger  *zap.Logger
}

func NewUserService(users UserStore, courses CourseStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:   users,
		courses: courses,
		logger:  logger,
	}
}

// RegisterUser регистрирует или обновляет пользователя
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName, languageCode string) (*model.User, error) {
	user := &model.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		LanguageCode: languageCode,
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ActorFor определяет роль пользователя в курсе. Студентом считается только
// записавшийся на курс, остальные получают RoleGuest.
func (s *UserService) ActorFor(ctx context.Context, user *model.User, courseID int64) (model.Actor, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return model.Actor{}, fmt.Errorf("resolve role: %w", err)
	}

	role := course.RoleOf(user)
	if role == model.RoleStudent {
		enrolled, err := s.courses.IsEnrolled(ctx, courseID, user.ID)
		if err != nil {
			return model.Actor{}, fmt.Errorf("resolve role: %w", err)
		}
		if !enrolled {
			role = model.RoleGuest
		}
	}

	return model.Actor{
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		Role:        role,
	}, nil
}

// SetTimezone сохраняет часовой пояс, в котором пользователь видит календарь
func (s *UserService) SetTimezone(ctx context.Context, user *model.User, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil || timezone == "" {
		return invalidInput("unknown timezone %q", timezone)
	}

	if err := s.users.SetTimezone(ctx, user.ID, timezone); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	user.Timezone = timezone

	s.logger.Info("User timezone updated",
		zap.Int64("user_id", user.ID),
		zap.String("timezone", timezone),
	)

	return nil
}

// ManagedCourses возвращает курсы, где пользователь преподаватель или соведущий
func (s *UserService) ManagedCourses(ctx context.Context, user *model.User) ([]*model.Course, error) {
	courses, err := s.courses.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	managed := courses[:0]
	for _, c := range courses {
		if c.RoleOf(user).CanManageMeeting() {
			managed = append(managed, c)
		}
	}
	return managed, nil
}
