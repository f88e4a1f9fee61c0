package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dishColumns = `id, category_id, name, description, base_price, image_url, is_available, created_at, updated_at`

func scanDish(row interface{ Scan(...any) error }) (Dish, error) {
	var i Dish
	err := row.Scan(
		&i.ID,
		&i.CategoryID,
		&i.Name,
		&i.Description,
		&i.BasePrice,
		&i.ImageUrl,
		&i.IsAvailable,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) queryDishes(ctx context.Context, sql string, args ...interface{}) ([]Dish, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Dish{}
	for rows.Next() {
		i, err := scanDish(rows)
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

const listDishes = `-- name: ListDishes :many
SELECT ` + dishColumns + ` FROM dishes
WHERE ($1::uuid IS NULL OR category_id = $1::uuid)
ORDER BY name, id
`

// ListDishes returns every dish, optionally restricted to one category.
func (q *Queries) ListDishes(ctx context.Context, categoryID pgtype.UUID) ([]Dish, error) {
	return q.queryDishes(ctx, listDishes, categoryID)
}

const listAvailableDishes = `-- name: ListAvailableDishes :many
SELECT ` + dishColumns + ` FROM dishes
WHERE is_available = true
ORDER BY name, id
`

func (q *Queries) ListAvailableDishes(ctx context.Context) ([]Dish, error) {
	return q.queryDishes(ctx, listAvailableDishes)
}

const getDish = `-- name: GetDish :one
SELECT ` + dishColumns + ` FROM dishes
WHERE id = $1
`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, getDish, id))
}

const createDish = `-- name: CreateDish :one
INSERT INTO dishes (category_id, name, description, base_price, image_url, is_available)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + dishColumns + `
`

type CreateDishParams struct {
	CategoryID  pgtype.UUID `json:"category_id"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	BasePrice   int64       `json:"base_price"`
	ImageUrl    pgtype.Text `json:"image_url"`
	IsAvailable bool        `json:"is_available"`
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, createDish,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.BasePrice,
		arg.ImageUrl,
		arg.IsAvailable,
	))
}

const updateDish = `-- name: UpdateDish :one
UPDATE dishes SET
    category_id = $1,
    name = $2,
    description = $3,
    base_price = $4,
    image_url = $5,
    is_available = $6,
    updated_at = now()
WHERE id = $7
RETURNING ` + dishColumns + `
`

type UpdateDishParams struct {
	CategoryID  pgtype.UUID `json:"category_id"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	BasePrice   int64       `json:"base_price"`
	ImageUrl    pgtype.Text `json:"image_url"`
	IsAvailable bool        `json:"is_available"`
	ID          uuid.UUID   `json:"id"`
}

func (q *Queries) UpdateDish(ctx context.Context, arg UpdateDishParams) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, updateDish,
		arg.CategoryID,
		arg.Name,
		arg.Description,
		arg.BasePrice,
		arg.ImageUrl,
		arg.IsAvailable,
		arg.ID,
	))
}

const deleteDish = `-- name: DeleteDish :one
DELETE FROM dishes WHERE id = $1
RETURNING id
`

// DeleteDish removes the dish and, by cascade, its option groups and options.
// Past order lines keep their snapshot with a NULL dish reference.
func (q *Queries) DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteDish, id)
	err := row.Scan(&id)
	return id, err
}

const listDishIDsWithOptionGroups = `-- name: ListDishIDsWithOptionGroups :many
SELECT DISTINCT dish_id FROM dish_option_groups
`

func (q *Queries) ListDishIDsWithOptionGroups(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listDishIDsWithOptionGroups)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
