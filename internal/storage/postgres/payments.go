package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const paymentColumns = `id, payment_method, amount, description, order_id, payer_name, payer_email,
       reference, status, ip_address, processed_at, created_at, updated_at`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanPayment(row rowScanner) (*model.PaymentRecord, error) {
	var p model.PaymentRecord
	err := row.Scan(
		&p.ID, &p.Method, &p.Amount, &p.Description, &p.OrderID, &p.PayerName, &p.PayerEmail,
		&p.Reference, &p.Status, &p.IPAddress, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func insertPaymentRecord(ctx context.Context, q rowQuerier, record *model.PaymentRecord) (int64, error) {
	const query = `INSERT INTO payment_records
                   (payment_method, amount, description, order_id, payer_name, payer_email, reference, status, ip_address)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
                   RETURNING id, processed_at, created_at, updated_at`
	err := q.QueryRow(ctx, query,
		record.Method, record.Amount, record.Description, record.OrderID, record.PayerName,
		record.PayerEmail, record.Reference, record.Status, record.IPAddress,
	).Scan(&record.ID, &record.ProcessedAt, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (r *paymentRepository) Create(ctx context.Context, record model.PaymentRecord) (*model.PaymentRecord, error) {
	if record.Status == "" {
		record.Status = model.PaymentStatusPending
	}
	if _, err := insertPaymentRecord(ctx, r.storage.pool, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id int64) (*model.PaymentRecord, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payment_records WHERE id=$1`
	record, err := scanPayment(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *paymentRepository) List(ctx context.Context, orderID *int64) ([]model.PaymentRecord, error) {
	const query = `SELECT ` + paymentColumns + ` FROM payment_records
                   WHERE ($1::BIGINT IS NULL OR order_id=$1)
                   ORDER BY created_at DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.PaymentRecord, error) {
	const query = `UPDATE payment_records
                   SET status=$1,
                       processed_at=CASE WHEN $1='completed' THEN NOW() ELSE processed_at END,
                       updated_at=NOW()
                   WHERE id=$2 AND status='pending'
                   RETURNING ` + paymentColumns
	record, err := scanPayment(r.storage.pool.QueryRow(ctx, query, status, id))
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	return nil, domainErrors.ErrStatusConflict
}
