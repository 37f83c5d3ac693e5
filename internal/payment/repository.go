package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uint) (*Payment, error)
	FindByRemoteID(ctx context.Context, remoteID string, gatewayIDs []string) (*Payment, error)
	FindPendingByOrder(ctx context.Context, orderID uint, gatewayID string) (*Payment, error)
	AttachRemoteID(ctx context.Context, id uint, remoteID, checkoutStep string) (bool, error)

	// TransitionState moves the payment from -> to only if it is still in
	// from. It reports whether a row was updated.
	TransitionState(ctx context.Context, id uint, from, to State, remoteState string) (bool, error)
	DeleteInState(ctx context.Context, id uint, state State) (bool, error)
	Delete(ctx context.Context, id uint) error

	// ListStalled returns new payments older than before, least recently
	// checked first.
	ListStalled(ctx context.Context, gatewayIDs []string, before time.Time, limit int) ([]uint, error)
	MarkChecked(ctx context.Context, id uint) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `id, order_id, payment_gateway, remote_id, amount, currency, state, remote_state, checkout_step, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*Payment, error) {
	var p Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.GatewayID, &p.RemoteID, &p.Amount, &p.Currency,
		&p.State, &p.RemoteState, &p.CheckoutStep, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	const q = `
	INSERT INTO payments (order_id, payment_gateway, remote_id, amount, currency, state, remote_state, checkout_step)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at, updated_at;
	`

	return r.db.QueryRowContext(ctx, q,
		p.OrderID, p.GatewayID, p.RemoteID, p.Amount, p.Currency, p.State, p.RemoteState, p.CheckoutStep,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repository) GetByID(ctx context.Context, id uint) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// FindByRemoteID returns the lowest-id payment when the remote id is
// (unexpectedly) shared by several rows.
func (r *repository) FindByRemoteID(ctx context.Context, remoteID string, gatewayIDs []string) (*Payment, error) {
	if remoteID == "" {
		return nil, ErrRemoteIDRequired
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE remote_id = $1 AND payment_gateway = ANY($2)
		ORDER BY id ASC
		LIMIT 1
	`, remoteID, pq.Array(gatewayIDs))
	return scanPayment(row)
}

func (r *repository) FindPendingByOrder(ctx context.Context, orderID uint, gatewayID string) (*Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND payment_gateway = $2 AND state = $3 AND remote_id = ''
		ORDER BY id DESC
		LIMIT 1
	`, orderID, gatewayID, StateNew)
	return scanPayment(row)
}

func (r *repository) AttachRemoteID(ctx context.Context, id uint, remoteID, checkoutStep string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET remote_id = $1, checkout_step = $2, updated_at = now()
		WHERE id = $3 AND state = $4 AND remote_id = ''
	`, remoteID, checkoutStep, id, StateNew)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) TransitionState(ctx context.Context, id uint, from, to State, remoteState string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET state = $1, remote_state = $2, updated_at = now()
		WHERE id = $3 AND state = $4
	`, to, remoteState, id, from)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) DeleteInState(ctx context.Context, id uint, state State) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1 AND state = $2`, id, state)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	return err
}

func (r *repository) ListStalled(ctx context.Context, gatewayIDs []string, before time.Time, limit int) ([]uint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id
		FROM payments
		WHERE state = $1
		  AND remote_id <> ''
		  AND payment_gateway = ANY($2)
		  AND created_at < $3
		ORDER BY last_checked_at ASC NULLS FIRST, id ASC
		LIMIT $4
	`, StateNew, pq.Array(gatewayIDs), before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkChecked records that the bank was asked about a payment that is still
// new, moving it to the back of the stalled queue.
func (r *repository) MarkChecked(ctx context.Context, id uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET last_checked_at = now()
		WHERE id = $1 AND state = $2
	`, id, StateNew)
	return err
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
