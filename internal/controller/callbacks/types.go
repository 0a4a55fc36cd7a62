package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

// Users - то, что обработчикам нужно от сервиса пользователей
type Users interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	ActorFor(ctx context.Context, user *model.User, courseID int64) (model.Actor, error)
}

// Meetings - операции жизненного цикла встречи
type Meetings interface {
	Session(ctx context.Context, lessonID int64) (*model.MeetingSession, error)
	Start(ctx context.Context, lessonID int64, actor model.Actor) (*model.MeetingSession, error)
	Join(ctx context.Context, lessonID int64, actor model.Actor) (*service.JoinParams, error)
	Leave(ctx context.Context, lessonID int64, actor model.Actor) (int, error)
	End(ctx context.Context, lessonID int64, actor model.Actor) (*model.MeetingSession, error)
}

// Lessons - изменение уроков преподавателем
type Lessons interface {
	DeleteLesson(ctx context.Context, lessonID int64) error
}

// Handler обрабатывает нажатия на inline кнопки
type Handler struct {
	Users    Users
	Meetings Meetings
	Lessons  Lessons
	Logger   *zap.Logger
}

// NewHandler создаёт новый обработчик callbacks с зависимостями
func NewHandler(users Users, meetings Meetings, lessons Lessons, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    users,
		Meetings: meetings,
		Lessons:  lessons,
		Logger:   logger,
	}
}

// HandleCallbackQuery - главный обработчик callback queries
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery

	h.Logger.Info("Callback received",
		zap.String("data", callback.Data),
		zap.Int64("user_id", callback.From.ID),
	)

	Route(ctx, b, callback, h)
}
