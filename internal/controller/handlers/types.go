package handlers

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/state"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	calendarService *service.CalendarService
	registry        *service.ScheduleRegistry
	stateManager    *state.Manager
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	calendarService *service.CalendarService,
	registry *service.ScheduleRegistry,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		calendarService: calendarService,
		registry:        registry,
		stateManager:    stateManager,
		logger:          logger,
	}
}
