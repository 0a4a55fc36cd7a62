package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *base.Repository
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, username, first_name, last_name, language_code, timezone, is_admin, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.LanguageCode,
		&user.Timezone,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert создаёт пользователя или обновляет его профиль из Telegram.
// Часовой пояс и флаг администратора не перезаписываются.
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, last_name, language_code, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    language_code = EXCLUDED.language_code
		RETURNING id, timezone, is_admin, created_at
	`

	err := r.db.Conn(ctx).QueryRow(
		ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.LanguageCode,
		user.Timezone,
	).Scan(&user.ID, &user.Timezone, &user.IsAdmin, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, telegramID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.Conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// SetTimezone сохраняет часовой пояс пользователя
func (r *UserRepository) SetTimezone(ctx context.Context, id int64, timezone string) error {
	affected, err := r.db.ExecAffected(ctx, `UPDATE users SET timezone = $1 WHERE id = $2`, timezone, id)
	if err != nil {
		return fmt.Errorf("set user timezone: %w", err)
	}

	if affected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}
