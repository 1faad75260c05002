package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/table-reservation/internal/model"
)

// ReservationRepo persists reservations in the `reservations` table.  Slot
// boundaries are stored as minutes since midnight and res_date as a DATE,
// both interpreted in UTC.  Every update is guarded by the version column.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, location_id, location_address, table_id, table_number, table_capacity,
       res_date, time_from, time_to, guests_number, status, client_type, user_email, user_info,
       waiter_id, pre_order_count, order_count, feedback_token, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		r             model.Reservation
		from, to      int
		waiterID      sql.NullString
		feedbackToken sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.LocationID, &r.LocationAddress, &r.TableID, &r.TableNumber, &r.TableCapacity,
		&r.Date, &from, &to, &r.GuestsNumber, &r.Status, &r.ClientType, &r.UserEmail, &r.UserInfo,
		&waiterID, &r.PreOrderCount, &r.OrderCount, &feedbackToken, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Date = r.Date.UTC()
	r.TimeFrom = model.TimeOfDay(from)
	r.TimeTo = model.TimeOfDay(to)
	r.WaiterID = waiterID.String
	r.FeedbackToken = feedbackToken.String
	return &r, nil
}

func (r *ReservationRepo) list(ctx context.Context, q querier, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

const listByTableQuery = `SELECT ` + reservationColumns + ` FROM reservations
                        WHERE res_date=? AND location_id=? AND table_id=? AND status<>'CANCELLED'
                        ORDER BY time_from`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Upsert inserts a new reservation (Version 0) or updates an existing one
// whose stored version still matches.  The stored row is read back and
// returned.
func (r *ReservationRepo) Upsert(ctx context.Context, res *model.Reservation) (*model.Reservation, error) {
	if err := r.write(ctx, r.db, res); err != nil {
		return nil, err
	}
	return r.GetReservation(ctx, res.ID)
}

// SaveIfFree locks the target table row, hands the table's active
// reservations for the day to check and writes res in the same
// transaction.  Concurrent bookers of one table queue on the row lock, so
// the check always sees every committed booking.
func (r *ReservationRepo) SaveIfFree(ctx context.Context, res *model.Reservation, check func(sameTable []model.Reservation) error) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM restaurant_tables WHERE id=? FOR UPDATE`, res.TableID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sameTable, err := r.list(ctx, tx, listByTableQuery, res.DateString(), res.LocationID, res.TableID)
	if err != nil {
		return nil, err
	}
	if err := check(sameTable); err != nil {
		return nil, err
	}
	if err := r.write(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetReservation(ctx, res.ID)
}

func (r *ReservationRepo) write(ctx context.Context, q querier, res *model.Reservation) error {
	if res.Version == 0 {
		const stmt = `INSERT INTO reservations (id, location_id, location_address, table_id, table_number, table_capacity,
                  res_date, time_from, time_to, guests_number, status, client_type, user_email, user_info,
                  waiter_id, pre_order_count, order_count, feedback_token, version)
                  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1)`
		_, err := q.ExecContext(ctx, stmt,
			res.ID, res.LocationID, res.LocationAddress, res.TableID, res.TableNumber, res.TableCapacity,
			res.DateString(), int(res.TimeFrom), int(res.TimeTo), res.GuestsNumber, res.Status, res.ClientType,
			res.UserEmail, res.UserInfo, nullString(res.WaiterID), res.PreOrderCount, res.OrderCount,
			nullString(res.FeedbackToken))
		if isDuplicate(err) {
			return ErrVersionConflict
		}
		return err
	}

	const stmt = `UPDATE reservations SET location_id=?, location_address=?, table_id=?, table_number=?, table_capacity=?,
                  res_date=?, time_from=?, time_to=?, guests_number=?, status=?, client_type=?, user_email=?, user_info=?,
                  waiter_id=?, pre_order_count=?, order_count=?, feedback_token=?, version=version+1
               WHERE id=? AND version=?`
	result, err := q.ExecContext(ctx, stmt,
		res.LocationID, res.LocationAddress, res.TableID, res.TableNumber, res.TableCapacity,
		res.DateString(), int(res.TimeFrom), int(res.TimeTo), res.GuestsNumber, res.Status, res.ClientType,
		res.UserEmail, res.UserInfo, nullString(res.WaiterID), res.PreOrderCount, res.OrderCount,
		nullString(res.FeedbackToken), res.ID, res.Version)
	if err != nil {
		return err
	}
	return checkUpdated(ctx, q, result, res.ID)
}

// checkUpdated distinguishes a missing row from a stale version when an
// update touched nothing.
func checkUpdated(ctx context.Context, q querier, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	ok, err := exists(ctx, q, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// Exists reports whether a reservation with id is stored.
func (r *ReservationRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, id)
}

func exists(ctx context.Context, q querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id=? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// GetReservation loads one reservation.
func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// ListByDateAndLocation returns active reservations at a location on date.
func (r *ReservationRepo) ListByDateAndLocation(ctx context.Context, date time.Time, locationID string) ([]model.Reservation, error) {
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
                        WHERE res_date=? AND location_id=? AND status<>'CANCELLED'
                        ORDER BY table_id, time_from`,
		date.Format(model.DateLayout), locationID)
}

// ListByDateLocationTable returns active reservations for one table on date.
func (r *ReservationRepo) ListByDateLocationTable(ctx context.Context, date time.Time, locationID, tableID string) ([]model.Reservation, error) {
	return r.list(ctx, r.db, listByTableQuery, date.Format(model.DateLayout), locationID, tableID)
}

// CountForWaiterOnDate counts active reservations assigned to a waiter.
func (r *ReservationRepo) CountForWaiterOnDate(ctx context.Context, waiterID string, date time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE waiter_id=? AND res_date=? AND status<>'CANCELLED'`,
		waiterID, date.Format(model.DateLayout)).Scan(&n)
	return n, err
}

// Cancel flips the status to CANCELLED if version still matches.
func (r *ReservationRepo) Cancel(ctx context.Context, id string, version int) (*model.Reservation, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status='CANCELLED', version=version+1 WHERE id=? AND version=?`,
		id, version)
	if err != nil {
		return nil, err
	}
	if err := checkUpdated(ctx, r.db, result, id); err != nil {
		return nil, err
	}
	return r.GetReservation(ctx, id)
}

// ListByEmail returns every reservation booked for a customer email.
func (r *ReservationRepo) ListByEmail(ctx context.Context, email string) ([]model.Reservation, error) {
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
                        WHERE user_email=? ORDER BY res_date, time_from, id`, email)
}

// ListByWaiterOnDate returns the reservations a waiter serves on date.
func (r *ReservationRepo) ListByWaiterOnDate(ctx context.Context, waiterID string, date time.Time) ([]model.Reservation, error) {
	return r.list(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations
                        WHERE waiter_id=? AND res_date=? ORDER BY time_from, id`,
		waiterID, date.Format(model.DateLayout))
}
