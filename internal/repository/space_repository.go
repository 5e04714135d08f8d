package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/campus-space-reservation/internal/booking"
	"github.com/iliyamo/campus-space-reservation/internal/model"
)

// SpaceRepo manages persistence for spaces, their weekly availability
// windows and their equipment. Availability and equipment live in child
// tables and are always written together with the space inside one
// transaction.
type SpaceRepo struct{ db *sql.DB }

// NewSpaceRepo constructs a SpaceRepo with the given DB handle.
func NewSpaceRepo(db *sql.DB) *SpaceRepo { return &SpaceRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *SpaceRepo) DB() *sql.DB { return r.db }

// ErrSpaceNameExists is returned when creating or renaming a space to a
// name that is already taken.
var ErrSpaceNameExists = errors.New("space name already exists")

// Create inserts a space with its availability windows and equipment in
// a single transaction and populates the generated ID and timestamps on
// the given model.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) error {
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

	const q = `INSERT INTO spaces (name, description, capacity, type, building, floor, status) VALUES (?,?,?,?,?,?,?)`
	res, err := tx.ExecContext(ctx, q, s.Name, s.Description, s.Capacity, s.Type, s.Building, s.Floor, string(s.Status))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSpaceNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	if err := insertAvailabilityTx(ctx, tx, s.ID, s.Availability); err != nil {
		return err
	}
	if err := insertEquipmentTx(ctx, tx, s.ID, s.Equipment); err != nil {
		return err
	}

	const sel = `SELECT created_at, updated_at FROM spaces WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update rewrites a space's attributes, windows and equipment in one
// transaction. The whole child set is replaced; partial window edits do
// not exist at this layer.
func (r *SpaceRepo) Update(ctx context.Context, s *model.Space) error {
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

	const q = `UPDATE spaces SET name=?, description=?, capacity=?, type=?, building=?, floor=?, status=? WHERE id=?`
	res, err := tx.ExecContext(ctx, q, s.Name, s.Description, s.Capacity, s.Type, s.Building, s.Floor, string(s.Status), s.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrSpaceNameExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either missing or unchanged; distinguish by existence.
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM spaces WHERE id=?`, s.ID).Scan(&one); err != nil {
			if err == sql.ErrNoRows {
				return booking.ErrSpaceNotFound
			}
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM space_availability WHERE space_id=?`, s.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM space_equipment WHERE space_id=?`, s.ID); err != nil {
		return err
	}
	if err := insertAvailabilityTx(ctx, tx, s.ID, s.Availability); err != nil {
		return err
	}
	if err := insertEquipmentTx(ctx, tx, s.ID, s.Equipment); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Delete removes a space unless blocking reservations still reference
// it, in which case booking.ErrSpaceInUse is returned and nothing
// changes.
func (r *SpaceRepo) Delete(ctx context.Context, id uint64) error {
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

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM reservations WHERE space_id=? AND status NOT IN ('rejected','cancelled') LIMIT 1`,
		id).Scan(&one)
	if err == nil {
		return booking.ErrSpaceInUse
	}
	if err != sql.ErrNoRows {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM space_availability WHERE space_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM space_equipment WHERE space_id=?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM spaces WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return booking.ErrSpaceNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a space with its availability windows and equipment.
// It returns booking.ErrSpaceNotFound when no row matches.
func (r *SpaceRepo) GetByID(ctx context.Context, id uint64) (model.Space, error) {
	const q = `SELECT id, name, description, capacity, type, building, floor, status, created_at, updated_at FROM spaces WHERE id = ?`
	var s model.Space
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.Capacity, &s.Type, &s.Building, &s.Floor, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Space{}, booking.ErrSpaceNotFound
		}
		return model.Space{}, err
	}
	s.Status = booking.SpaceStatus(status)
	if s.Availability, err = r.loadAvailability(ctx, id); err != nil {
		return model.Space{}, err
	}
	if s.Equipment, err = r.loadEquipment(ctx, id); err != nil {
		return model.Space{}, err
	}
	return s, nil
}

// ListFilter narrows List results. Zero values mean "no filter";
// Limit 0 falls back to 50.
type ListFilter struct {
	Type     string
	Status   string
	Building string
	Limit    int
	Offset   int
}

// List returns spaces matching the filter ordered by name. Availability
// and equipment are loaded for each returned space.
func (r *SpaceRepo) List(ctx context.Context, f ListFilter) ([]model.Space, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Building != "" {
		where = append(where, "building = ?")
		args = append(args, f.Building)
	}
	q := `SELECT id, name, description, capacity, type, building, floor, status, created_at, updated_at FROM spaces`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q += " ORDER BY name LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spaces := make([]model.Space, 0)
	for rows.Next() {
		var s model.Space
		var status string
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Capacity, &s.Type, &s.Building, &s.Floor, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Status = booking.SpaceStatus(status)
		spaces = append(spaces, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range spaces {
		if spaces[i].Availability, err = r.loadAvailability(ctx, spaces[i].ID); err != nil {
			return nil, err
		}
		if spaces[i].Equipment, err = r.loadEquipment(ctx, spaces[i].ID); err != nil {
			return nil, err
		}
	}
	return spaces, nil
}

// UpdateStatus changes only the status column of a space.
func (r *SpaceRepo) UpdateStatus(ctx context.Context, id uint64, status booking.SpaceStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE spaces SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM spaces WHERE id=?`, id).Scan(&one); err == sql.ErrNoRows {
			return booking.ErrSpaceNotFound
		}
	}
	return nil
}

func (r *SpaceRepo) loadAvailability(ctx context.Context, spaceID uint64) (booking.WeeklySchedule, error) {
	const q = `SELECT weekday, start_time, end_time FROM space_availability WHERE space_id = ? ORDER BY weekday, start_time`
	rows, err := r.db.QueryContext(ctx, q, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sched := booking.WeeklySchedule{}
	for rows.Next() {
		var day int
		var win booking.Window
		if err := rows.Scan(&day, &win.Start, &win.End); err != nil {
			return nil, err
		}
		wd := time.Weekday(day)
		sched[wd] = append(sched[wd], win)
	}
	return sched, rows.Err()
}

func (r *SpaceRepo) loadEquipment(ctx context.Context, spaceID uint64) ([]model.Equipment, error) {
	const q = `SELECT name, quantity, description FROM space_equipment WHERE space_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, spaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var eq []model.Equipment
	for rows.Next() {
		var e model.Equipment
		var desc sql.NullString
		if err := rows.Scan(&e.Name, &e.Quantity, &desc); err != nil {
			return nil, err
		}
		e.Description = desc.String
		eq = append(eq, e)
	}
	return eq, rows.Err()
}

func insertAvailabilityTx(ctx context.Context, tx *sql.Tx, spaceID uint64, sched booking.WeeklySchedule) error {
	if len(sched) == 0 {
		return nil
	}
	query := `INSERT INTO space_availability (space_id, weekday, start_time, end_time) VALUES `
	args := make([]interface{}, 0, len(sched)*4)
	first := true
	for day := time.Sunday; day <= time.Saturday; day++ {
		for _, win := range sched[day] {
			if !first {
				query += ","
			}
			first = false
			query += "(?, ?, ?, ?)"
			args = append(args, spaceID, int(day), win.Start, win.End)
		}
	}
	if first {
		return nil
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func insertEquipmentTx(ctx context.Context, tx *sql.Tx, spaceID uint64, eq []model.Equipment) error {
	if len(eq) == 0 {
		return nil
	}
	query := `INSERT INTO space_equipment (space_id, name, quantity, description) VALUES `
	args := make([]interface{}, 0, len(eq)*4)
	for i, e := range eq {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, spaceID, e.Name, e.Quantity, e.Description)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
