package database

import (
	"context"

	"github.com/google/uuid"
)

const diningTableColumns = `id, table_number, is_active, created_at`

func scanDiningTable(row interface{ Scan(...any) error }) (DiningTable, error) {
	var i DiningTable
	err := row.Scan(
		&i.ID,
		&i.TableNumber,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const listDiningTables = `-- name: ListDiningTables :many
SELECT ` + diningTableColumns + ` FROM dining_tables
ORDER BY table_number
`

func (q *Queries) ListDiningTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listDiningTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DiningTable{}
	for rows.Next() {
		i, err := scanDiningTable(rows)
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

const getDiningTable = `-- name: GetDiningTable :one
SELECT ` + diningTableColumns + ` FROM dining_tables
WHERE id = $1
`

func (q *Queries) GetDiningTable(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getDiningTable, id))
}

const getDiningTableByNumber = `-- name: GetDiningTableByNumber :one
SELECT ` + diningTableColumns + ` FROM dining_tables
WHERE table_number = $1
`

func (q *Queries) GetDiningTableByNumber(ctx context.Context, tableNumber int32) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, getDiningTableByNumber, tableNumber))
}

const upsertDiningTable = `-- name: UpsertDiningTable :one
INSERT INTO dining_tables (table_number, is_active)
VALUES ($1, true)
ON CONFLICT (table_number) DO UPDATE SET is_active = true
RETURNING ` + diningTableColumns + `
`

func (q *Queries) UpsertDiningTable(ctx context.Context, tableNumber int32) (DiningTable, error) {
	return scanDiningTable(q.db.QueryRow(ctx, upsertDiningTable, tableNumber))
}
