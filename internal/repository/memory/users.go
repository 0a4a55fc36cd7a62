package memory

import (
	"context"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type UserStore struct {
	s *Store
}

// Upsert matches users by TelegramID, like the unique key in PostgreSQL.
func (r *UserStore) Upsert(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, stored := range r.s.users {
		if stored.TelegramID != user.TelegramID {
			continue
		}
		stored.Username = user.Username
		stored.FirstName = user.FirstName
		stored.LastName = user.LastName
		stored.LanguageCode = user.LanguageCode
		user.ID = stored.ID
		user.Timezone = stored.Timezone
		user.IsAdmin = stored.IsAdmin
		user.CreatedAt = stored.CreatedAt
		return nil
	}

	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (r *UserStore) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if user.TelegramID == telegramID {
			c := *user
			return &c, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *UserStore) SetTimezone(_ context.Context, id int64, timezone string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	user.Timezone = timezone
	return nil
}
