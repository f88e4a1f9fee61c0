package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Emoji        string    `json:"emoji"`
	DisplayOrder int32     `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type DiningTable struct {
	ID          uuid.UUID `json:"id"`
	TableNumber int32     `json:"table_number"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Dish struct {
	ID          uuid.UUID   `json:"id"`
	CategoryID  pgtype.UUID `json:"category_id"`
	Name        string      `json:"name"`
	Description pgtype.Text `json:"description"`
	BasePrice   int64       `json:"base_price"`
	ImageUrl    pgtype.Text `json:"image_url"`
	IsAvailable bool        `json:"is_available"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type DishOption struct {
	ID            int64     `json:"id"`
	OptionGroupID int64     `json:"option_group_id"`
	Name          string    `json:"name"`
	ExtraPrice    int64     `json:"extra_price"`
	IsAvailable   bool      `json:"is_available"`
	DisplayOrder  int32     `json:"display_order"`
	CreatedAt     time.Time `json:"created_at"`
}

type DishOptionGroup struct {
	ID            int64     `json:"id"`
	DishID        uuid.UUID `json:"dish_id"`
	Name          string    `json:"name"`
	SelectionType string    `json:"selection_type"`
	IsRequired    bool      `json:"is_required"`
	DisplayOrder  int32     `json:"display_order"`
	AllowNote     bool      `json:"allow_note"`
	CreatedAt     time.Time `json:"created_at"`
}

type Order struct {
	ID              uuid.UUID `json:"id"`
	TableID         uuid.UUID `json:"table_id"`
	TableNumber     int32     `json:"table_number"`
	Total           int64     `json:"total"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
}

type OrderLine struct {
	ID             uuid.UUID   `json:"id"`
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

type StaffUser struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
