package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
)

// ReservationRepo persists reservations. The overlap-sensitive writes
// (CreateIfNoConflict, UpdateIntervalIfNoConflict) lock the space's
// blocking rows with SELECT ... FOR UPDATE inside one transaction so
// that two racing requests for overlapping intervals can never both
// commit; the check and the write are a single atomic unit.
type ReservationRepo struct{ db *sql.DB }

// NewReservationRepo constructs a ReservationRepo with the given DB handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB handle.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationCols = `id, user_id, space_id, starts_at, ends_at, purpose, description, attendees, status, created_at, updated_at`

func scanReservation(row interface {
	Scan(dest ...interface{}) error
}) (model.Reservation, error) {
	var res model.Reservation
	var desc sql.NullString
	var attendees sql.NullInt64
	var status string
	err := row.Scan(&res.ID, &res.UserID, &res.SpaceID, &res.StartsAt, &res.EndsAt,
		&res.Purpose, &desc, &attendees, &status, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Description = desc.String
	if attendees.Valid {
		n := uint32(attendees.Int64)
		res.Attendees = &n
	}
	res.Status = booking.Status(status)
	return res, nil
}

// GetByID loads one reservation. It returns
// booking.ErrReservationNotFound when no row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, booking.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

// FindBlocking returns all reservations for a space that occupy it,
// that is every status except rejected and cancelled. When excludeID is
// non-zero that reservation is left out, which callers use during
// interval updates so a reservation does not collide with itself.
func (r *ReservationRepo) FindBlocking(ctx context.Context, spaceID, excludeID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationCols + ` FROM reservations
          WHERE space_id = ? AND status NOT IN ('rejected','cancelled')`
	args := []interface{}{spaceID}
	if excludeID != 0 {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	q += " ORDER BY starts_at"
	rows, err := r.db.QueryContext(ctx, q, args...)
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
		out = append(out, res)
	}
	return out, rows.Err()
}

// lockOverlappingTx selects, with row locks, the blocking reservations
// of a space whose intervals overlap [start, end) under the half-open
// rule: existing.starts_at < end AND existing.ends_at > start.
func lockOverlappingTx(ctx context.Context, tx *sql.Tx, spaceID, excludeID uint64, start, end time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationCols + ` FROM reservations
          WHERE space_id = ? AND status NOT IN ('rejected','cancelled')
            AND starts_at < ? AND ends_at > ?`
	args := []interface{}{spaceID, end, start}
	if excludeID != 0 {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	q += " FOR UPDATE"
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overlaps []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		overlaps = append(overlaps, res)
	}
	return overlaps, rows.Err()
}

// CreateIfNoConflict atomically verifies that no blocking reservation
// overlaps the candidate interval and inserts the new row. On conflict
// it returns booking.ErrConflict and nothing is written. The generated
// ID, default status and timestamps are populated on res.
func (r *ReservationRepo) CreateIfNoConflict(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	overlaps, err := lockOverlappingTx(ctx, tx, res.SpaceID, 0, res.StartsAt, res.EndsAt)
	if err != nil {
		return err
	}
	if len(overlaps) > 0 {
		return booking.ErrConflict
	}

	const q = `INSERT INTO reservations (user_id, space_id, starts_at, ends_at, purpose, description, attendees, status)
               VALUES (?,?,?,?,?,?,?,?)`
	var attendees interface{}
	if res.Attendees != nil {
		attendees = *res.Attendees
	}
	out, err := tx.ExecContext(ctx, q, res.UserID, res.SpaceID, res.StartsAt, res.EndsAt,
		res.Purpose, res.Description, attendees, string(booking.StatusPending))
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	const sel = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	*res, err = scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateIntervalIfNoConflict atomically swaps a reservation's interval
// after re-checking overlap against all other blocking reservations of
// its space. The reservation's own row is excluded from the comparison
// set. It returns the updated record, booking.ErrConflict when the new
// interval overlaps, or booking.ErrReservationNotFound.
func (r *ReservationRepo) UpdateIntervalIfNoConflict(ctx context.Context, id uint64, iv booking.Interval) (model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Reservation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const cur = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ? FOR UPDATE`
	res, err := scanReservation(tx.QueryRowContext(ctx, cur, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Reservation{}, booking.ErrReservationNotFound
		}
		return model.Reservation{}, err
	}

	overlaps, err := lockOverlappingTx(ctx, tx, res.SpaceID, id, iv.Start, iv.End)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(overlaps) > 0 {
		return model.Reservation{}, booking.ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE reservations SET starts_at=?, ends_at=? WHERE id=?`,
		iv.Start, iv.End, id); err != nil {
		return model.Reservation{}, err
	}

	const sel = `SELECT ` + reservationCols + ` FROM reservations WHERE id = ?`
	res, err = scanReservation(tx.QueryRowContext(ctx, sel, id))
	if err != nil {
		return model.Reservation{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Reservation{}, err
	}
	committed = true
	return res, nil
}

// CompareAndSetStatus moves a reservation from expected to next in one
// guarded UPDATE. A concurrent transition that already changed the
// status makes the guard miss; that surfaces as
// booking.ErrInvalidTransition because the caller validated an edge
// that no longer exists.
func (r *ReservationRepo) CompareAndSetStatus(ctx context.Context, id uint64, expected, next booking.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status=? WHERE id=? AND status=?`,
		string(next), id, string(expected))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id=?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return booking.ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		return booking.ErrInvalidTransition
	}
	return nil
}

// ListByUser returns a user's reservations, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, q, userID, limit, offset)
}

// ListBySpace returns a space's reservations ordered by start time.
func (r *ReservationRepo) ListBySpace(ctx context.Context, spaceID uint64, limit, offset int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + reservationCols + ` FROM reservations WHERE space_id = ? ORDER BY starts_at LIMIT ? OFFSET ?`
	return r.list(ctx, q, spaceID, limit, offset)
}

// ListAll returns every reservation, newest first. Admin listings only.
func (r *ReservationRepo) ListAll(ctx context.Context, limit, offset int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + reservationCols + ` FROM reservations ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.list(ctx, q, limit, offset)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
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
		out = append(out, res)
	}
	return out, rows.Err()
}

// CompleteElapsed advances every approved reservation whose end instant
// has passed to completed and returns how many rows moved. Re-running
// it is a no-op for already completed rows, so the sweep is idempotent.
func (r *ReservationRepo) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status='completed' WHERE status='approved' AND ends_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
