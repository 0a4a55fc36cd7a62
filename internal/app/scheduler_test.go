package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSweeper struct {
	mu        sync.Mutex
	calls     int
	olderThan time.Duration
	failed    int
	err       error
}

func (f *fakeSweeper) FailStale(_ context.Context, olderThan time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.olderThan = olderThan
	return f.failed, f.err
}

func (f *fakeSweeper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_SweepsOnStartAndTick(t *testing.T) {
	sweeper := &fakeSweeper{failed: 2}
	core, logs := observer.New(zap.InfoLevel)

	s := NewScheduler(sweeper, 10*time.Millisecond, 30*time.Second, zap.New(core))
	s.Start(context.Background())

	require.Eventually(t, func() bool { return sweeper.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	calls := sweeper.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, sweeper.Calls(), "no sweeps after Stop")
	assert.Equal(t, 30*time.Second, sweeper.olderThan)
	assert.NotZero(t, logs.FilterMessage("Rolled back stale meeting starts").Len())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, time.Hour, time.Minute, zap.NewNop())
	s.Start(context.Background())

	s.Stop()
	s.Stop()
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	sweeper := &fakeSweeper{}
	core, logs := observer.New(zap.InfoLevel)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(sweeper, time.Hour, time.Minute, zap.New(core))
	s.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Stale meeting sweep cancelled").Len() == 1
	}, time.Second, 5*time.Millisecond)
	s.Stop()
	assert.Equal(t, 1, sweeper.Calls())
}

func TestScheduler_LogsSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	core, logs := observer.New(zap.ErrorLevel)

	s := NewScheduler(sweeper, time.Hour, time.Minute, zap.New(core))
	s.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.Calls() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, 1, logs.FilterMessage("Failed to sweep stale meetings").Len())
}
