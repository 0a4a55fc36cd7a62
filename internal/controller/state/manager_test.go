package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_SetAndClear(t *testing.T) {
	sm := NewManager()

	assert.Equal(t, StateNone, sm.GetState(42))

	sm.SetState(42, StateEnteringTimezone)
	assert.Equal(t, StateEnteringTimezone, sm.GetState(42))

	sm.ClearState(42)
	assert.Equal(t, StateNone, sm.GetState(42))
	assert.Empty(t, sm.states)
}

func TestManager_Concurrent(t *testing.T) {
	sm := NewManager()

	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sm.SetState(id, StateEnteringTimezone)
			_ = sm.GetState(id)
			sm.ClearState(id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, sm.states)
}
