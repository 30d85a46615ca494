package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeatRepoMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatRepo(db), mock
}

func TestReserveWinsFreeSeat(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 1, usuario_id = \?`).
		WithArgs(uint64(7), uint64(1), uint32(2), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Reserve(context.Background(), 1, 2, 3, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveOccupiedSeatIsConflict(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	// The conditional update matches nothing; the probe finds the seat
	// occupied, so the caller lost the swap.
	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 1, usuario_id = \?`).
		WithArgs(uint64(9), uint64(1), uint32(2), uint32(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT ocupado FROM asientos`).
		WithArgs(uint64(1), uint32(2), uint32(3)).
		WillReturnRows(sqlmock.NewRows([]string{"ocupado"}).AddRow(true))

	err := repo.Reserve(context.Background(), 1, 2, 3, 9)
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveMissingSeatIsNotFound(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 1, usuario_id = \?`).
		WithArgs(uint64(7), uint64(1), uint32(99), uint32(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT ocupado FROM asientos`).
		WithArgs(uint64(1), uint32(99), uint32(99)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Reserve(context.Background(), 1, 99, 99, 7)
	assert.ErrorIs(t, err, ErrSeatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	// N concurrent attempts on one free seat: the storage layer hands
	// out exactly one affected row, so one caller wins and the rest
	// observe the seat as taken.
	const n = 8
	repo, mock := newSeatRepoMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 1, usuario_id = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i := 0; i < n-1; i++ {
		mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 1, usuario_id = \?`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT ocupado FROM asientos`).
			WillReturnRows(sqlmock.NewRows([]string{"ocupado"}).AddRow(true))
	}

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(user uint64) {
			results <- repo.Reserve(context.Background(), 1, 2, 3, user)
		}(uint64(i + 1))
	}

	var wins, conflicts int
	for i := 0; i < n; i++ {
		switch err := <-results; {
		case err == nil:
			wins++
		case err == ErrSeatTaken:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByOwnerFreesSeat(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 0, usuario_id = NULL`).
		WithArgs(uint64(1), uint32(2), uint32(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Cancel(context.Background(), 1, 2, 3, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelHidesOwnership(t *testing.T) {
	// A non-owner, a free seat and a missing seat all look the same:
	// zero affected rows and ErrSeatNotFound.
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec(`UPDATE asientos\s+SET ocupado = 0, usuario_id = NULL`).
		WithArgs(uint64(1), uint32(2), uint32(3), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), 1, 2, 3, 42)
	assert.ErrorIs(t, err, ErrSeatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyByRouteBuildsLabelMap(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	rows := sqlmock.NewRows([]string{"fila", "columna", "ocupado"}).
		AddRow(1, 1, false).
		AddRow(1, 2, true).
		AddRow(2, 3, true)
	mock.ExpectQuery(`SELECT fila, columna, ocupado`).
		WithArgs(uint64(5)).
		WillReturnRows(rows)

	seats, err := repo.OccupancyByRoute(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"1-1": false, "1-2": true, "2-3": true}, seats)
}

func TestOccupancyByRouteEmptyRoute(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectQuery(`SELECT fila, columna, ocupado`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"fila", "columna", "ocupado"}))

	seats, err := repo.OccupancyByRoute(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, seats)
	assert.NotNil(t, seats)
}

func TestListReservationsByUser(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	rows := sqlmock.NewRows([]string{"ruta_id", "fila", "columna", "destino", "precio"}).
		AddRow(1, 2, 3, "Oaxaca", 250.0).
		AddRow(4, 1, 1, "Puebla", 180.5)
	mock.ExpectQuery(`FROM asientos a\s+JOIN rutas r`).
		WithArgs(uint64(7)).
		WillReturnRows(rows)

	res, err := repo.ListReservationsByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Oaxaca", res[0].Destination)
	assert.Equal(t, 250.0, res[0].Price)
	assert.Equal(t, uint64(7), res[0].UserID)
	assert.Equal(t, uint32(2), res[0].Row)
	assert.Equal(t, uint32(3), res[0].Column)
}

func TestListReservationsByUserEmpty(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectQuery(`FROM asientos a\s+JOIN rutas r`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"ruta_id", "fila", "columna", "destino", "precio"}))

	res, err := repo.ListReservationsByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestProvisionGridBuildsFullGrid(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec(`INSERT IGNORE INTO asientos`).
		WithArgs(
			uint64(3), uint32(1), uint32(1),
			uint64(3), uint32(1), uint32(2),
			uint64(3), uint32(2), uint32(1),
			uint64(3), uint32(2), uint32(2),
		).
		WillReturnResult(sqlmock.NewResult(0, 4))

	created, err := repo.ProvisionGrid(context.Background(), 3, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), created)
}

func TestProvisionGridZeroDimensionsIsNoop(t *testing.T) {
	repo, _ := newSeatRepoMock(t)

	created, err := repo.ProvisionGrid(context.Background(), 3, 0, 5)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestEnsureRouteFreeTxOccupiedRoute(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM asientos WHERE ruta_id = \? AND ocupado = 1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	err = repo.EnsureRouteFreeTx(context.Background(), tx, 3)
	assert.ErrorIs(t, err, ErrRouteInUse)
	require.NoError(t, tx.Rollback())
}

func TestEnsureRouteFreeTxFreeRoute(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewSeatRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM asientos WHERE ruta_id = \? AND ocupado = 1`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	assert.NoError(t, repo.EnsureRouteFreeTx(context.Background(), tx, 3))
	require.NoError(t, tx.Rollback())
}
