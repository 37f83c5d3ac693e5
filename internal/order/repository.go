package order

import (
	"context"
	"database/sql"
	"errors"
)

type Repository interface {
	GetOrder(ctx context.Context, orderID uint) (*Order, error)
	UpdateCheckoutStep(ctx context.Context, orderID uint, step string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrder(ctx context.Context, orderID uint) (*Order, error) {
	query := `
		SELECT id, customer_id, status, checkout_step, ip_address,
		       total_amount, currency, item_count, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var (
		o          Order
		customerID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&o.ID, &customerID, &o.Status, &o.CheckoutStep, &o.IPAddress,
		&o.Total, &o.Currency, &o.ItemCount, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		o.CustomerID = uint(customerID.Int64)
	}
	return &o, nil
}

func (r *repository) UpdateCheckoutStep(ctx context.Context, orderID uint, step string) error {
	query := `
		UPDATE orders
		SET checkout_step = $1, updated_at = NOW()
		WHERE id = $2
	`

	res, err := r.db.ExecContext(ctx, query, step, orderID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}
