package userrepo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"bookrider/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Ola", "Nowak", "ola@example.com", "ola", "hash", model.RoleUser).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), time.Now()))

	u := &model.User{
		FirstName: "Ola", LastName: "Nowak",
		Email: "ola@example.com", Username: "ola",
		PasswordHash: "hash", Role: model.RoleUser,
	}
	require.NoError(t, r.Create(context.Background(), u))
	require.Equal(t, int64(42), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestByEmail_Miss(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectQuery(`SELECT .* FROM users`).
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	u, err := r.ByEmail(context.Background(), "missing@example.com")
	require.NoError(t, err)
	require.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockBalance(t *testing.T) {
	db, mock := newMock(t)
	r := New(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT balance\s+FROM users\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(123.45))

	tx, err := db.Begin()
	require.NoError(t, err)

	bal, err := r.LockBalance(context.Background(), tx, 5)
	require.NoError(t, err)
	require.Equal(t, 123.45, bal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustBalance(t *testing.T) {
	t.Run("applies signed delta", func(t *testing.T) {
		db, mock := newMock(t)
		r := New(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET balance = balance \+ \$2 WHERE id = \$1`).
			WithArgs(int64(5), -16.00).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.Begin()
		require.NoError(t, err)
		require.NoError(t, r.AdjustBalance(context.Background(), tx, 5, -16.00))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock := newMock(t)
		r := New(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE users SET balance`).
			WithArgs(int64(999), 10.00).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.Begin()
		require.NoError(t, err)
		require.ErrorIs(t, r.AdjustBalance(context.Background(), tx, 999, 10.00), sql.ErrNoRows)
	})
}
