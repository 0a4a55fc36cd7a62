package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaleMeetingSweeper откатывает встречи, зависшие в состоянии starting
type StaleMeetingSweeper interface {
	FailStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	meetings  StaleMeetingSweeper
	interval  time.Duration
	staleness time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      sync.WaitGroup
}

// NewScheduler создаёт новый планировщик. staleness - сколько ждать подтверждения комнаты,
// прежде чем считать запуск зависшим.
func NewScheduler(meetings StaleMeetingSweeper, interval, staleness time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		meetings:  meetings,
		interval:  interval,
		staleness: staleness,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.done.Add(1)
	go s.runStaleSweepTask(ctx)
}

// Stop останавливает фоновые задачи и дожидается их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.done.Wait()
}

func (s *Scheduler) runStaleSweepTask(ctx context.Context) {
	defer s.done.Done()

	// Первый запуск сразу при старте: подбираем то, что осталось после падения
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Stale meeting sweep stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Stale meeting sweep cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	failed, err := s.meetings.FailStale(ctx, s.staleness)
	if err != nil {
		s.logger.Error("Failed to sweep stale meetings", zap.Error(err))
		return
	}

	if failed > 0 {
		s.logger.Warn("Rolled back stale meeting starts", zap.Int("count", failed))
	}
}
