package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/venue-reservation-bot/internal/model"
)

// ReservationStore is the durable collection of reservations used by the
// conversation engine, the capacity guard and the HTTP views.  Writes are
// visible to every subsequent read; implementations must not buffer.
type ReservationStore interface {
    // Create inserts res and fills in its ID and CreatedAt.
    Create(ctx context.Context, res *model.Reservation) error
    // CreateBatch inserts every record or none of them.
    CreateBatch(ctx context.Context, batch []*model.Reservation) error
    // GetByID returns ErrNotFound when no row matches.
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    // SumPartySize sums party sizes, optionally filtered by kind ("" = all).
    SumPartySize(ctx context.Context, kind model.EntryKind) (int, error)
    // Count counts reservations, optionally filtered by kind ("" = all).
    Count(ctx context.Context, kind model.EntryKind) (int, error)
    // DistinctSenders lists every sender that holds at least one reservation.
    DistinctSenders(ctx context.Context) ([]string, error)
    // List returns all reservations, newest first.
    List(ctx context.Context) ([]model.Reservation, error)
    // DeleteAll removes every reservation and returns how many were deleted.
    DeleteAll(ctx context.Context) (int64, error)
}

// ReservationRepo implements ReservationStore on top of database/sql.  The
// queries only use portable SQL so the same repository serves MySQL in
// production and sqlite in development and tests.  All timestamps are
// stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for health checks.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const selectColumns = `SELECT id, sender, full_name, kind, party_size, confirmed, created_at, referral FROM reservations`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create validates and inserts a reservation.  Confirmed is forced to
// true and CreatedAt is stamped here, so the caller only supplies the
// dialogue fields.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    return insert(ctx, r.db, res)
}

// CreateBatch inserts the batch in one transaction.  When any record is
// invalid or any insert fails the transaction is rolled back and the IDs
// already assigned to the batch are cleared.
func (r *ReservationRepo) CreateBatch(ctx context.Context, batch []*model.Reservation) (err error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin batch: %w", err)
    }
    defer func() {
        if err == nil {
            return
        }
        _ = tx.Rollback()
        for _, res := range batch {
            res.ID = 0
        }
    }()
    for _, res := range batch {
        if err = insert(ctx, tx, res); err != nil {
            return err
        }
    }
    if err = tx.Commit(); err != nil {
        return fmt.Errorf("commit batch: %w", err)
    }
    return nil
}

func insert(ctx context.Context, ex execer, res *model.Reservation) error {
    if res.PartySize < 1 || !res.Kind.Valid() {
        return fmt.Errorf("%w: kind=%q party_size=%d", ErrInvalidReservation, res.Kind, res.PartySize)
    }
    if res.Referral == "" {
        res.Referral = model.ReferralOrganic
    }
    res.Confirmed = true
    res.CreatedAt = time.Now().UTC()

    const q = `INSERT INTO reservations (sender, full_name, kind, party_size, confirmed, created_at, referral) VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := ex.ExecContext(ctx, q,
        res.Sender, res.FullName, string(res.Kind), res.PartySize, res.Confirmed, res.CreatedAt, res.Referral)
    if err != nil {
        return fmt.Errorf("insert reservation: %w", err)
    }
    id, err := result.LastInsertId()
    if err != nil {
        return fmt.Errorf("insert reservation: %w", err)
    }
    res.ID = uint64(id)
    return nil
}

// GetByID loads a single reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
    res, err := scanReservation(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return res, nil
}

// SumPartySize returns the number of admitted people.  An empty kind sums
// across all reservations; an empty table yields zero.
func (r *ReservationRepo) SumPartySize(ctx context.Context, kind model.EntryKind) (int, error) {
    return r.aggregate(ctx, `SELECT COALESCE(SUM(party_size), 0) FROM reservations`, kind)
}

// Count returns the number of reservation rows, optionally filtered by kind.
func (r *ReservationRepo) Count(ctx context.Context, kind model.EntryKind) (int, error) {
    return r.aggregate(ctx, `SELECT COUNT(*) FROM reservations`, kind)
}

func (r *ReservationRepo) aggregate(ctx context.Context, q string, kind model.EntryKind) (int, error) {
    var (
        n    int
        args []interface{}
    )
    if kind != "" {
        q += ` WHERE kind = ?`
        args = append(args, string(kind))
    }
    if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// DistinctSenders returns the senders with at least one reservation,
// ordered by their first booking.
func (r *ReservationRepo) DistinctSenders(ctx context.Context) ([]string, error) {
    const q = `SELECT sender FROM reservations GROUP BY sender ORDER BY MIN(id)`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []string
    for rows.Next() {
        var s string
        if err := rows.Scan(&s); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// List returns every reservation ordered by id descending.
func (r *ReservationRepo) List(ctx context.Context) ([]model.Reservation, error) {
    rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *res)
    }
    return out, rows.Err()
}

// DeleteAll wipes the reservations table.  Calling it on an empty table
// is not an error.
func (r *ReservationRepo) DeleteAll(ctx context.Context) (int64, error) {
    result, err := r.db.ExecContext(ctx, `DELETE FROM reservations`)
    if err != nil {
        return 0, fmt.Errorf("delete reservations: %w", err)
    }
    n, err := result.RowsAffected()
    if err != nil {
        return 0, fmt.Errorf("delete reservations: rows affected: %w", err)
    }
    return n, nil
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanReservation(s rowScanner) (*model.Reservation, error) {
    var (
        res  model.Reservation
        kind string
    )
    if err := s.Scan(&res.ID, &res.Sender, &res.FullName, &kind, &res.PartySize,
        &res.Confirmed, &res.CreatedAt, &res.Referral); err != nil {
        return nil, err
    }
    res.Kind = model.EntryKind(kind)
    res.CreatedAt = res.CreatedAt.UTC()
    return &res, nil
}
