package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, table_id, table_number, total, currency, status, created_at, updated_at, status_changed_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.TableNumber,
		&i.Total,
		&i.Currency,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.StatusChangedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (table_id, table_number, total, currency, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	TableID     uuid.UUID `json:"table_id"`
	TableNumber int32     `json:"table_number"`
	Total       int64     `json:"total"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.TableID,
		arg.TableNumber,
		arg.Total,
		arg.Currency,
		arg.Status,
	))
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE ($1::text IS NULL OR status = $1::text)
  AND ($2::uuid IS NULL OR table_id = $2::uuid)
  AND ($3::timestamptz IS NULL OR updated_at > $3::timestamptz)
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	Status       pgtype.Text        `json:"status"`
	TableID      pgtype.UUID        `json:"table_id"`
	UpdatedSince pgtype.Timestamptz `json:"updated_since"`
	Limit        int32              `json:"limit"`
	Offset       int32              `json:"offset"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.TableID,
		arg.UpdatedSince,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders SET status = $1, updated_at = now(), status_changed_at = now()
WHERE id = $2
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	Status string    `json:"status"`
	ID     uuid.UUID `json:"id"`
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.Status, arg.ID))
}

const orderLineColumns = `id, order_id, dish_id, dish_name, quantity, unit_price, subtotal, comment, customizations, line_no`

func scanOrderLine(row interface{ Scan(...any) error }) (OrderLine, error) {
	var i OrderLine
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.DishID,
		&i.DishName,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
		&i.Comment,
		&i.Customizations,
		&i.LineNo,
	)
	return i, err
}

const createOrderLine = `-- name: CreateOrderLine :one
INSERT INTO order_lines (order_id, dish_id, dish_name, quantity, unit_price, subtotal, comment, customizations, line_no)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + orderLineColumns + `
`

type CreateOrderLineParams struct {
	OrderID        uuid.UUID   `json:"order_id"`
	DishID         pgtype.UUID `json:"dish_id"`
	DishName       string      `json:"dish_name"`
	Quantity       int32       `json:"quantity"`
	UnitPrice      int64       `json:"unit_price"`
	Subtotal       int64       `json:"subtotal"`
	Comment        pgtype.Text `json:"comment"`
	Customizations []byte      `json:"customizations"`
	LineNo         int32       `json:"line_no"`
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	return scanOrderLine(q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID,
		arg.DishID,
		arg.DishName,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
		arg.Comment,
		arg.Customizations,
		arg.LineNo,
	))
}

const listOrderLines = `-- name: ListOrderLines :many
SELECT ` + orderLineColumns + ` FROM order_lines
WHERE order_id = $1
ORDER BY line_no
`

func (q *Queries) ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderLine{}
	for rows.Next() {
		i, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
