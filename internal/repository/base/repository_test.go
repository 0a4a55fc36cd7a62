package base

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewRepository(mock)
}

func TestRepository_WithinTx(t *testing.T) {
	ctx := context.Background()
	errFn := errors.New("boom")

	tests := []struct {
		name    string
		mock    func(mock pgxmock.PgxPoolIface)
		fn      func(r *Repository) func(ctx context.Context) error
		wantErr error
	}{
		{
			name: "commits when fn succeeds",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec(`DELETE FROM lessons`).
					WithArgs(int64(1)).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectCommit()
			},
			fn: func(r *Repository) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					_, err := r.ExecAffected(ctx, `DELETE FROM lessons WHERE id = $1`, int64(1))
					return err
				}
			},
		},
		{
			name: "rolls back when fn fails",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn: func(*Repository) func(ctx context.Context) error {
				return func(context.Context) error { return errFn }
			},
			wantErr: errFn,
		},
		{
			name: "nested call joins the outer transaction",
			mock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectCommit()
			},
			fn: func(r *Repository) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return r.WithinTx(ctx, func(inner context.Context) error {
						if r.Conn(inner) != r.Conn(ctx) {
							return errors.New("nested call opened its own transaction")
						}
						return nil
					})
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, r := newMockRepository(t)
			tt.mock(mock)

			err := r.WithinTx(ctx, tt.fn(r))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ConnOutsideTxUsesPool(t *testing.T) {
	mock, r := newMockRepository(t)
	assert.Equal(t, Executor(mock), r.Conn(context.Background()))
}

func TestUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "lessons_schedule_ref_key"}

	assert.True(t, UniqueViolation(dup, "lessons_schedule_ref_key"))
	assert.True(t, UniqueViolation(errors.Join(errors.New("create lesson"), dup), "lessons_schedule_ref_key"))
	assert.False(t, UniqueViolation(dup, "users_telegram_id_key"))
	assert.False(t, UniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "lessons_schedule_ref_key"}, "lessons_schedule_ref_key"))
	assert.False(t, UniqueViolation(errors.New("23505"), "lessons_schedule_ref_key"))
}
