package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/venue-reservation-bot/internal/database"
	"github.com/iliyamo/venue-reservation-bot/internal/model"
	"github.com/iliyamo/venue-reservation-bot/internal/repository"
)

func setupRepo(t *testing.T) *repository.ReservationRepo {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return repository.NewReservationRepo(db)
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := &model.Reservation{Sender: "whatsapp:+1", FullName: "Ana", Kind: model.KindGeneral, PartySize: 1}
	second := &model.Reservation{Sender: "whatsapp:+1", FullName: "Beto (VIP)", Kind: model.KindVIP, PartySize: 6, Referral: "matias"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	assert.Greater(t, second.ID, first.ID)
	assert.True(t, first.Confirmed)
	assert.Equal(t, model.ReferralOrganic, first.Referral)
	assert.False(t, first.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beto (VIP)", got.FullName)
	assert.Equal(t, model.KindVIP, got.Kind)
	assert.Equal(t, 6, got.PartySize)
	assert.Equal(t, "matias", got.Referral)
	assert.True(t, got.Confirmed)
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	err := repo.Create(ctx, &model.Reservation{Sender: "s", FullName: "X", Kind: model.KindGeneral, PartySize: 0})
	assert.ErrorIs(t, err, repository.ErrInvalidReservation)

	err = repo.Create(ctx, &model.Reservation{Sender: "s", FullName: "X", Kind: "Mesa", PartySize: 2})
	assert.ErrorIs(t, err, repository.ErrInvalidReservation)

	n, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAggregatesByKind(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	sum, err := repo.SumPartySize(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, sum)

	for _, r := range []model.Reservation{
		{Sender: "a", FullName: "A", Kind: model.KindGeneral, PartySize: 1},
		{Sender: "a", FullName: "B", Kind: model.KindGeneral, PartySize: 1},
		{Sender: "b", FullName: "C (VIP)", Kind: model.KindVIP, PartySize: 8},
	} {
		rec := r
		require.NoError(t, repo.Create(ctx, &rec))
	}

	sum, err = repo.SumPartySize(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10, sum)

	sum, err = repo.SumPartySize(ctx, model.KindVIP)
	require.NoError(t, err)
	assert.Equal(t, 8, sum)

	count, err := repo.Count(ctx, model.KindGeneral)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	senders, err := repo.DistinctSenders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, senders)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "C (VIP)", list[0].FullName)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := setupRepo(t)
	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteAllIsIdempotent(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.Reservation{Sender: "a", FullName: "A", Kind: model.KindGeneral, PartySize: 1}))

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateBatchCommitsInOrder(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	batch := []*model.Reservation{
		{Sender: "s", FullName: "Ana", Kind: model.KindGeneral, PartySize: 1},
		{Sender: "s", FullName: "Beto", Kind: model.KindGeneral, PartySize: 1},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))
	assert.Less(t, batch[0].ID, batch[1].ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Beto", list[0].FullName)
	assert.Equal(t, "Ana", list[1].FullName)
}

func TestCreateBatchRollsBackOnFailure(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	batch := []*model.Reservation{
		{Sender: "s", FullName: "Ana", Kind: model.KindGeneral, PartySize: 1},
		{Sender: "s", FullName: "Beto", Kind: "Mesa", PartySize: 1},
		{Sender: "s", FullName: "Carla", Kind: model.KindGeneral, PartySize: 1},
	}
	err := repo.CreateBatch(ctx, batch)
	assert.ErrorIs(t, err, repository.ErrInvalidReservation)
	for _, res := range batch {
		assert.Zero(t, res.ID, res.FullName)
	}

	n, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	// The connection is usable again after the rollback.
	require.NoError(t, repo.Create(ctx, &model.Reservation{Sender: "s", FullName: "Dani", Kind: model.KindGeneral, PartySize: 1}))
}

// rowsAffectedErrDriver accepts every statement but cannot report how
// many rows it touched.
type rowsAffectedErrDriver struct{}

func (rowsAffectedErrDriver) Open(string) (driver.Conn, error) { return rowsAffectedErrConn{}, nil }

type rowsAffectedErrConn struct{}

func (rowsAffectedErrConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (rowsAffectedErrConn) Close() error              { return nil }
func (rowsAffectedErrConn) Begin() (driver.Tx, error) { return nil, errors.New("tx not supported") }
func (rowsAffectedErrConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	return rowsAffectedErrResult{}, nil
}

type rowsAffectedErrResult struct{}

func (rowsAffectedErrResult) LastInsertId() (int64, error) { return 0, nil }
func (rowsAffectedErrResult) RowsAffected() (int64, error) {
	return 0, errors.New("rows affected unavailable")
}

func init() { sql.Register("rows-affected-err", rowsAffectedErrDriver{}) }

func TestDeleteAllReportsRowsAffectedError(t *testing.T) {
	db, err := sql.Open("rows-affected-err", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n, err := repository.NewReservationRepo(db).DeleteAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected unavailable")
	assert.Zero(t, n)
}
