package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const optionGroupColumns = `id, dish_id, name, selection_type, is_required, display_order, allow_note, created_at`

func scanOptionGroup(row interface{ Scan(...any) error }) (DishOptionGroup, error) {
	var i DishOptionGroup
	err := row.Scan(
		&i.ID,
		&i.DishID,
		&i.Name,
		&i.SelectionType,
		&i.IsRequired,
		&i.DisplayOrder,
		&i.AllowNote,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) queryOptionGroups(ctx context.Context, sql string, args ...interface{}) ([]DishOptionGroup, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DishOptionGroup{}
	for rows.Next() {
		i, err := scanOptionGroup(rows)
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

const listOptionGroups = `-- name: ListOptionGroups :many
SELECT ` + optionGroupColumns + ` FROM dish_option_groups
WHERE ($1::uuid IS NULL OR dish_id = $1::uuid)
ORDER BY dish_id, display_order, id
LIMIT $2 OFFSET $3
`

type ListOptionGroupsParams struct {
	DishID pgtype.UUID `json:"dish_id"`
	Limit  int32       `json:"limit"`
	Offset int32       `json:"offset"`
}

func (q *Queries) ListOptionGroups(ctx context.Context, arg ListOptionGroupsParams) ([]DishOptionGroup, error) {
	return q.queryOptionGroups(ctx, listOptionGroups, arg.DishID, arg.Limit, arg.Offset)
}

const listOptionGroupsByDish = `-- name: ListOptionGroupsByDish :many
SELECT ` + optionGroupColumns + ` FROM dish_option_groups
WHERE dish_id = $1
ORDER BY display_order, id
`

func (q *Queries) ListOptionGroupsByDish(ctx context.Context, dishID uuid.UUID) ([]DishOptionGroup, error) {
	return q.queryOptionGroups(ctx, listOptionGroupsByDish, dishID)
}

const getOptionGroup = `-- name: GetOptionGroup :one
SELECT ` + optionGroupColumns + ` FROM dish_option_groups
WHERE id = $1
`

func (q *Queries) GetOptionGroup(ctx context.Context, id int64) (DishOptionGroup, error) {
	return scanOptionGroup(q.db.QueryRow(ctx, getOptionGroup, id))
}

const createOptionGroup = `-- name: CreateOptionGroup :one
INSERT INTO dish_option_groups (dish_id, name, selection_type, is_required, display_order, allow_note)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + optionGroupColumns + `
`

type CreateOptionGroupParams struct {
	DishID        uuid.UUID `json:"dish_id"`
	Name          string    `json:"name"`
	SelectionType string    `json:"selection_type"`
	IsRequired    bool      `json:"is_required"`
	DisplayOrder  int32     `json:"display_order"`
	AllowNote     bool      `json:"allow_note"`
}

func (q *Queries) CreateOptionGroup(ctx context.Context, arg CreateOptionGroupParams) (DishOptionGroup, error) {
	return scanOptionGroup(q.db.QueryRow(ctx, createOptionGroup,
		arg.DishID,
		arg.Name,
		arg.SelectionType,
		arg.IsRequired,
		arg.DisplayOrder,
		arg.AllowNote,
	))
}

// Null parameters leave the column unchanged.
const updateOptionGroup = `-- name: UpdateOptionGroup :one
UPDATE dish_option_groups SET
    dish_id = COALESCE($1, dish_id),
    name = COALESCE($2, name),
    selection_type = COALESCE($3, selection_type),
    is_required = COALESCE($4, is_required),
    display_order = COALESCE($5, display_order),
    allow_note = COALESCE($6, allow_note)
WHERE id = $7
RETURNING ` + optionGroupColumns + `
`

type UpdateOptionGroupParams struct {
	DishID        pgtype.UUID `json:"dish_id"`
	Name          pgtype.Text `json:"name"`
	SelectionType pgtype.Text `json:"selection_type"`
	IsRequired    pgtype.Bool `json:"is_required"`
	DisplayOrder  pgtype.Int4 `json:"display_order"`
	AllowNote     pgtype.Bool `json:"allow_note"`
	ID            int64       `json:"id"`
}

func (q *Queries) UpdateOptionGroup(ctx context.Context, arg UpdateOptionGroupParams) (DishOptionGroup, error) {
	return scanOptionGroup(q.db.QueryRow(ctx, updateOptionGroup,
		arg.DishID,
		arg.Name,
		arg.SelectionType,
		arg.IsRequired,
		arg.DisplayOrder,
		arg.AllowNote,
		arg.ID,
	))
}

const deleteOptionGroup = `-- name: DeleteOptionGroup :one
DELETE FROM dish_option_groups WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteOptionGroup(ctx context.Context, id int64) (int64, error) {
	row := q.db.QueryRow(ctx, deleteOptionGroup, id)
	err := row.Scan(&id)
	return id, err
}

const dishOptionColumns = `id, option_group_id, name, extra_price, is_available, display_order, created_at`

func scanDishOption(row interface{ Scan(...any) error }) (DishOption, error) {
	var i DishOption
	err := row.Scan(
		&i.ID,
		&i.OptionGroupID,
		&i.Name,
		&i.ExtraPrice,
		&i.IsAvailable,
		&i.DisplayOrder,
		&i.CreatedAt,
	)
	return i, err
}

func (q *Queries) queryDishOptions(ctx context.Context, sql string, args ...interface{}) ([]DishOption, error) {
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []DishOption{}
	for rows.Next() {
		i, err := scanDishOption(rows)
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

const listDishOptions = `-- name: ListDishOptions :many
SELECT ` + dishOptionColumns + ` FROM dish_options
WHERE ($1::bigint IS NULL OR option_group_id = $1::bigint)
ORDER BY option_group_id, display_order, id
LIMIT $2 OFFSET $3
`

type ListDishOptionsParams struct {
	OptionGroupID pgtype.Int8 `json:"option_group_id"`
	Limit         int32       `json:"limit"`
	Offset        int32       `json:"offset"`
}

func (q *Queries) ListDishOptions(ctx context.Context, arg ListDishOptionsParams) ([]DishOption, error) {
	return q.queryDishOptions(ctx, listDishOptions, arg.OptionGroupID, arg.Limit, arg.Offset)
}

const listAvailableOptionsByGroups = `-- name: ListAvailableOptionsByGroups :many
SELECT ` + dishOptionColumns + ` FROM dish_options
WHERE option_group_id = ANY($1::bigint[]) AND is_available = true
ORDER BY option_group_id, display_order, id
`

func (q *Queries) ListAvailableOptionsByGroups(ctx context.Context, groupIDs []int64) ([]DishOption, error) {
	return q.queryDishOptions(ctx, listAvailableOptionsByGroups, groupIDs)
}

const getDishOption = `-- name: GetDishOption :one
SELECT ` + dishOptionColumns + ` FROM dish_options
WHERE id = $1
`

func (q *Queries) GetDishOption(ctx context.Context, id int64) (DishOption, error) {
	return scanDishOption(q.db.QueryRow(ctx, getDishOption, id))
}

const createDishOption = `-- name: CreateDishOption :one
INSERT INTO dish_options (option_group_id, name, extra_price, is_available, display_order)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + dishOptionColumns + `
`

type CreateDishOptionParams struct {
	OptionGroupID int64  `json:"option_group_id"`
	Name          string `json:"name"`
	ExtraPrice    int64  `json:"extra_price"`
	IsAvailable   bool   `json:"is_available"`
	DisplayOrder  int32  `json:"display_order"`
}

func (q *Queries) CreateDishOption(ctx context.Context, arg CreateDishOptionParams) (DishOption, error) {
	return scanDishOption(q.db.QueryRow(ctx, createDishOption,
		arg.OptionGroupID,
		arg.Name,
		arg.ExtraPrice,
		arg.IsAvailable,
		arg.DisplayOrder,
	))
}

// Null parameters leave the column unchanged.
const updateDishOption = `-- name: UpdateDishOption :one
UPDATE dish_options SET
    option_group_id = COALESCE($1, option_group_id),
    name = COALESCE($2, name),
    extra_price = COALESCE($3, extra_price),
    is_available = COALESCE($4, is_available),
    display_order = COALESCE($5, display_order)
WHERE id = $6
RETURNING ` + dishOptionColumns + `
`

type UpdateDishOptionParams struct {
	OptionGroupID pgtype.Int8 `json:"option_group_id"`
	Name          pgtype.Text `json:"name"`
	ExtraPrice    pgtype.Int8 `json:"extra_price"`
	IsAvailable   pgtype.Bool `json:"is_available"`
	DisplayOrder  pgtype.Int4 `json:"display_order"`
	ID            int64       `json:"id"`
}

func (q *Queries) UpdateDishOption(ctx context.Context, arg UpdateDishOptionParams) (DishOption, error) {
	return scanDishOption(q.db.QueryRow(ctx, updateDishOption,
		arg.OptionGroupID,
		arg.Name,
		arg.ExtraPrice,
		arg.IsAvailable,
		arg.DisplayOrder,
		arg.ID,
	))
}

const deleteDishOption = `-- name: DeleteDishOption :one
DELETE FROM dish_options WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteDishOption(ctx context.Context, id int64) (int64, error) {
	row := q.db.QueryRow(ctx, deleteDishOption, id)
	err := row.Scan(&id)
	return id, err
}
