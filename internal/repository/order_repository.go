package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/table-reservation/internal/model"
)

// OrderRepo manages pre-orders, live orders and feedback rows, the
// per-reservation data the lifecycle reads at start and completion.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// GetPreOrderByReservation loads a pre-order and its items.
func (r *OrderRepo) GetPreOrderByReservation(ctx context.Context, reservationID string) (*model.PreOrder, error) {
	var p model.PreOrder
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id, status FROM pre_orders WHERE reservation_id=? LIMIT 1`, reservationID).
		Scan(&p.ID, &p.ReservationID, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT i.dish_id, d.name, i.quantity, i.status
         FROM pre_order_items i JOIN dishes d ON d.id = i.dish_id
         WHERE i.pre_order_id=? ORDER BY d.name`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.PreOrderItem
		if err := rows.Scan(&it.DishID, &it.DishName, &it.Quantity, &it.Status); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, it)
	}
	return &p, rows.Err()
}

// GetOrderByReservation loads the live order and its lines.
func (r *OrderRepo) GetOrderByReservation(ctx context.Context, reservationID string) (*model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id FROM orders WHERE reservation_id=? LIMIT 1`, reservationID).
		Scan(&o.ID, &o.ReservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT dish_id, quantity, price_cents FROM order_lines WHERE order_id=? ORDER BY dish_id`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.DishID, &l.Quantity, &l.PriceCents); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

// AddDish adds one unit of dishID to the reservation's order inside a
// transaction, creating the order and the line as needed.  The line keeps
// the dish price current at the time it was first added.
func (r *OrderRepo) AddDish(ctx context.Context, reservationID, dishID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO orders (id, reservation_id) VALUES (?, ?)`,
		uuid.NewString(), reservationID); err != nil {
		return err
	}
	var orderID string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE reservation_id=? FOR UPDATE`, reservationID).Scan(&orderID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO order_lines (order_id, dish_id, quantity, price_cents)
         SELECT ?, d.id, 1, d.price_cents FROM dishes d WHERE d.id=?
         ON DUPLICATE KEY UPDATE quantity = quantity + 1`,
		orderID, dishID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ListFeedback returns feedback rows of one type for a reservation.
func (r *OrderRepo) ListFeedback(ctx context.Context, reservationID string, typ model.FeedbackType) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, type, rate, COALESCE(comment, ''), created_at
         FROM feedback WHERE reservation_id=? AND type=? ORDER BY created_at`,
		reservationID, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.ReservationID, &f.Type, &f.Rate, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
