package state

import "sync"

// Manager хранит состояние диалога каждого пользователя
type Manager struct {
	mu     sync.RWMutex
	states map[int64]UserState // telegramID -> состояние
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]UserState),
	}
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.states[telegramID]
}

// SetState устанавливает состояние пользователя; StateNone удаляет запись
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}
	sm.states[telegramID] = state
}

// ClearState сбрасывает диалог пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.SetState(telegramID, StateNone)
}
