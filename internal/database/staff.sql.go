package database

import (
	"context"

	"github.com/google/uuid"
)

const staffUserColumns = `id, username, password_hash, full_name, role, is_active, created_at, updated_at`

func scanStaffUser(row interface{ Scan(...any) error }) (StaffUser, error) {
	var i StaffUser
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.PasswordHash,
		&i.FullName,
		&i.Role,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getStaffUserByUsername = `-- name: GetStaffUserByUsername :one
SELECT ` + staffUserColumns + ` FROM staff_users
WHERE username = $1 AND is_active = true
`

func (q *Queries) GetStaffUserByUsername(ctx context.Context, username string) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, getStaffUserByUsername, username))
}

const getStaffUser = `-- name: GetStaffUser :one
SELECT ` + staffUserColumns + ` FROM staff_users
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetStaffUser(ctx context.Context, id uuid.UUID) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, getStaffUser, id))
}

const listStaffUsers = `-- name: ListStaffUsers :many
SELECT ` + staffUserColumns + ` FROM staff_users
WHERE is_active = true
ORDER BY username
`

func (q *Queries) ListStaffUsers(ctx context.Context) ([]StaffUser, error) {
	rows, err := q.db.Query(ctx, listStaffUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []StaffUser{}
	for rows.Next() {
		i, err := scanStaffUser(rows)
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

const createStaffUser = `-- name: CreateStaffUser :one
INSERT INTO staff_users (username, password_hash, full_name, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + staffUserColumns + `
`

type CreateStaffUserParams struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
}

func (q *Queries) CreateStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, createStaffUser,
		arg.Username,
		arg.PasswordHash,
		arg.FullName,
		arg.Role,
	))
}

const updateStaffUser = `-- name: UpdateStaffUser :one
UPDATE staff_users SET username = $1, full_name = $2, role = $3, updated_at = now()
WHERE id = $4 AND is_active = true
RETURNING ` + staffUserColumns + `
`

type UpdateStaffUserParams struct {
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	ID       uuid.UUID `json:"id"`
}

func (q *Queries) UpdateStaffUser(ctx context.Context, arg UpdateStaffUserParams) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, updateStaffUser,
		arg.Username,
		arg.FullName,
		arg.Role,
		arg.ID,
	))
}

const updateStaffPassword = `-- name: UpdateStaffPassword :one
UPDATE staff_users SET password_hash = $1, updated_at = now()
WHERE id = $2 AND is_active = true
RETURNING id
`

type UpdateStaffPasswordParams struct {
	PasswordHash string    `json:"password_hash"`
	ID           uuid.UUID `json:"id"`
}

func (q *Queries) UpdateStaffPassword(ctx context.Context, arg UpdateStaffPasswordParams) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, updateStaffPassword, arg.PasswordHash, arg.ID)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const softDeleteStaffUser = `-- name: SoftDeleteStaffUser :one
UPDATE staff_users SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteStaffUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, softDeleteStaffUser, id)
	err := row.Scan(&id)
	return id, err
}

// UpsertStaffUser is used by the seeder to (re)create a known account.
const upsertStaffUser = `-- name: UpsertStaffUser :one
INSERT INTO staff_users (username, password_hash, full_name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO UPDATE SET
    password_hash = EXCLUDED.password_hash,
    full_name = EXCLUDED.full_name,
    role = EXCLUDED.role,
    is_active = true,
    updated_at = now()
RETURNING ` + staffUserColumns + `
`

func (q *Queries) UpsertStaffUser(ctx context.Context, arg CreateStaffUserParams) (StaffUser, error) {
	return scanStaffUser(q.db.QueryRow(ctx, upsertStaffUser,
		arg.Username,
		arg.PasswordHash,
		arg.FullName,
		arg.Role,
	))
}
