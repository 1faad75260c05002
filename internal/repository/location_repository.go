package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/table-reservation/internal/model"
)

// LocationRepo reads locations and their tables.  Both are maintained by
// back-office tooling and are read-only to the reservation engine.
type LocationRepo struct {
	db *sql.DB
}

// NewLocationRepo constructs a LocationRepo.
func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

// GetLocation returns a location by id or ErrNotFound.
func (r *LocationRepo) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	var l model.Location
	err := r.db.QueryRowContext(ctx,
		`SELECT id, address, name FROM locations WHERE id=? LIMIT 1`, id).
		Scan(&l.ID, &l.Address, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetTable returns a table by id or ErrNotFound.
func (r *LocationRepo) GetTable(ctx context.Context, id string) (*model.Table, error) {
	var t model.Table
	err := r.db.QueryRowContext(ctx,
		`SELECT id, location_id, table_number, capacity FROM restaurant_tables WHERE id=? LIMIT 1`, id).
		Scan(&t.ID, &t.LocationID, &t.TableNumber, &t.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTablesByLocation returns the tables of a location ordered by number.
func (r *LocationRepo) ListTablesByLocation(ctx context.Context, locationID string) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, location_id, table_number, capacity FROM restaurant_tables
         WHERE location_id=? ORDER BY table_number, id`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.LocationID, &t.TableNumber, &t.Capacity); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
