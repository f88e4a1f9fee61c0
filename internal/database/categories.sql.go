package database

import (
	"context"

	"github.com/google/uuid"
)

const categoryColumns = `id, name, emoji, display_order, created_at`

func scanCategory(row interface{ Scan(...any) error }) (Category, error) {
	var i Category
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Emoji,
		&i.DisplayOrder,
		&i.CreatedAt,
	)
	return i, err
}

const listCategories = `-- name: ListCategories :many
SELECT ` + categoryColumns + ` FROM categories
ORDER BY display_order, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Category{}
	for rows.Next() {
		i, err := scanCategory(rows)
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

const getCategory = `-- name: GetCategory :one
SELECT ` + categoryColumns + ` FROM categories
WHERE id = $1
`

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, getCategory, id))
}

// Matches either the bare name or the "emoji name" label, case-insensitively.
const findCategoryByLabel = `-- name: FindCategoryByLabel :one
SELECT ` + categoryColumns + ` FROM categories
WHERE lower(name) = lower(btrim($1))
   OR lower(CASE WHEN emoji <> '' THEN emoji || ' ' || name ELSE name END) = lower(btrim($1))
ORDER BY display_order, name
LIMIT 1
`

func (q *Queries) FindCategoryByLabel(ctx context.Context, label string) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, findCategoryByLabel, label))
}

const createCategory = `-- name: CreateCategory :one
INSERT INTO categories (name, emoji, display_order)
VALUES ($1, $2, $3)
RETURNING ` + categoryColumns + `
`

type CreateCategoryParams struct {
	Name         string `json:"name"`
	Emoji        string `json:"emoji"`
	DisplayOrder int32  `json:"display_order"`
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, createCategory, arg.Name, arg.Emoji, arg.DisplayOrder))
}

const updateCategory = `-- name: UpdateCategory :one
UPDATE categories SET name = $1, emoji = $2, display_order = $3
WHERE id = $4
RETURNING ` + categoryColumns + `
`

type UpdateCategoryParams struct {
	Name         string    `json:"name"`
	Emoji        string    `json:"emoji"`
	DisplayOrder int32     `json:"display_order"`
	ID           uuid.UUID `json:"id"`
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRow(ctx, updateCategory,
		arg.Name,
		arg.Emoji,
		arg.DisplayOrder,
		arg.ID,
	))
}

const deleteCategory = `-- name: DeleteCategory :one
DELETE FROM categories WHERE id = $1
RETURNING id
`

// DeleteCategory fails with a foreign key violation while dishes still
// reference the category.
func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteCategory, id)
	err := row.Scan(&id)
	return id, err
}
