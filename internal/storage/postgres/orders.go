package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const orderColumns = `id, customer_name, customer_email, customer_phone, total_amount, status,
       payment_method, receiving_address, expected_amount, session_handle, payment_record_id,
       created_at, updated_at`

const itemColumns = `id, order_id, product_id, product_name, unit_price, quantity, created_at`

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o        model.Order
		expected decimal.NullDecimal
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.TotalAmount, &o.Status,
		&o.PaymentMethod, &o.ReceivingAddress, &expected, &o.SessionHandle, &o.PaymentRecordID,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expected.Valid {
		o.ExpectedAmount = &expected.Decimal
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, draft model.OrderDraft) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		ids := make([]int64, 0, len(draft.Items))
		for _, item := range draft.Items {
			ids = append(ids, item.ProductID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		stock, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		items := make([]model.LineItem, 0, len(draft.Items))
		total := decimal.Zero
		for _, item := range draft.Items {
			product, ok := stock[item.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", item.ProductID, domainErrors.ErrNotFound)
			}
			if product.Quantity < item.Quantity {
				return fmt.Errorf("product %q: %w", product.Name, domainErrors.ErrInsufficientStock)
			}
			product.Quantity -= item.Quantity
			stock[item.ProductID] = product

			line := model.LineItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
			}
			total = total.Add(line.Subtotal())
			items = append(items, line)
		}

		const insertOrder = `INSERT INTO orders (customer_name, customer_email, customer_phone, total_amount, status)
                             VALUES ($1, $2, $3, $4, $5)
                             RETURNING id, created_at, updated_at`
		created := model.Order{
			CustomerName:  draft.CustomerName,
			CustomerEmail: draft.CustomerEmail,
			CustomerPhone: draft.CustomerPhone,
			TotalAmount:   total.Round(model.FiatPrecision),
			Status:        model.OrderStatusPending,
		}
		err = tx.QueryRow(ctx, insertOrder, created.CustomerName, created.CustomerEmail, created.CustomerPhone, created.TotalAmount, created.Status).
			Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
		if err != nil {
			return err
		}

		const insertItem = `INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
                            VALUES ($1, $2, $3, $4, $5)
                            RETURNING id, created_at`
		const decrementStock = `UPDATE products SET quantity = quantity - $1, updated_at = NOW() WHERE id = $2`
		for i := range items {
			line := &items[i]
			if err := tx.QueryRow(ctx, insertItem, created.ID, line.ProductID, line.ProductName, line.UnitPrice, line.Quantity).
				Scan(&line.ID, &line.CreatedAt); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, decrementStock, line.Quantity, line.ProductID); err != nil {
				return err
			}
		}

		created.Items = items
		order = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func lockProducts(ctx context.Context, tx pgx.Tx, ids []int64) (map[int64]model.Product, error) {
	const query = `SELECT id, name, price, quantity FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity); err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	items, err := loadItems(ctx, r.storage.pool, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
	orders, err := r.queryOrders(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := loadItems(ctx, r.storage.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *orderRepository) ListByStatus(ctx context.Context, status model.OrderStatus, updatedBefore time.Time, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE status=$1 AND updated_at <= $2
                   ORDER BY updated_at
                   LIMIT $3`
	return r.queryOrders(ctx, query, status, updatedBefore, limit)
}

func (r *orderRepository) ListAfter(ctx context.Context, status model.OrderStatus, afterID int64, limit int) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE status=$1 AND id > $2
                   ORDER BY id
                   LIMIT $3`
	return r.queryOrders(ctx, query, status, afterID, limit)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func loadItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]model.LineItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`
	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64][]model.LineItem, len(orderIDs))
	for rows.Next() {
		var (
			item    model.LineItem
			orderID int64
		)
		if err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.ProductName, &item.UnitPrice, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, err
		}
		result[orderID] = append(result[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) AttachTarget(ctx context.Context, attachment model.TargetAttachment) (bool, error) {
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		record := attachment.Record
		record.Method = attachment.Method
		record.Status = model.PaymentStatusPending
		if record.OrderID == nil {
			orderID := attachment.OrderID
			record.OrderID = &orderID
		}
		recordID, err := insertPaymentRecord(ctx, tx, &record)
		if err != nil {
			return err
		}

		expected := decimal.NullDecimal{}
		if attachment.ExpectedAmount != nil {
			expected = decimal.NewNullDecimal(*attachment.ExpectedAmount)
		}

		const query = `UPDATE orders
                       SET status=$1, payment_method=$2, receiving_address=$3, expected_amount=$4,
                           session_handle=$5, payment_record_id=$6, updated_at=NOW()
                       WHERE id=$7 AND status=$8`
		tag, err := tx.Exec(ctx, query, attachment.To, attachment.Method, attachment.ReceivingAddress, expected,
			attachment.SessionHandle, recordID, attachment.OrderID, attachment.From)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errStaleStatus
		}
		return nil
	})
	if errors.Is(err, errStaleStatus) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Transition moves the order from change.From to change.To together with its ledger row.
// It reports false when the order is no longer in change.From, and ErrStatusConflict
// when the ledger row was already finalized with a different status.
func (r *orderRepository) Transition(ctx context.Context, change model.StatusChange) (bool, error) {
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateOrder = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
		tag, err := tx.Exec(ctx, updateOrder, change.To, change.OrderID, change.From)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errStaleStatus
		}

		if s := change.Settlement; s != nil {
			const settle = `UPDATE payment_records
                            SET status=$1,
                                reference=COALESCE($2, reference),
                                payer_name=COALESCE($3, payer_name),
                                payer_email=COALESCE($4, payer_email),
                                processed_at=NOW(), updated_at=NOW()
                            WHERE id=$5 AND status='pending'`
			tag, err := tx.Exec(ctx, settle, s.Status, s.Reference, s.PayerName, s.PayerEmail, s.RecordID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				// The row already left pending; only an identical final status keeps order and ledger in step.
				var current model.PaymentStatus
				if err := tx.QueryRow(ctx, `SELECT status FROM payment_records WHERE id=$1`, s.RecordID).Scan(&current); err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						return domainErrors.ErrStatusConflict
					}
					return err
				}
				if current != s.Status {
					return domainErrors.ErrStatusConflict
				}
			}
		}

		if change.Restock {
			const restock = `UPDATE products p
                             SET quantity = p.quantity + r.qty, updated_at = NOW()
                             FROM (SELECT product_id, SUM(quantity) AS qty FROM order_items WHERE order_id=$1 GROUP BY product_id) r
                             WHERE p.id = r.product_id`
			if _, err := tx.Exec(ctx, restock, change.OrderID); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errStaleStatus) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
