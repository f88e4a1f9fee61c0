package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablemenu/api/internal/cart"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
	"github.com/tablemenu/api/internal/events"
	"github.com/tablemenu/api/internal/money"
	"github.com/tablemenu/api/internal/pricing"
	"github.com/tablemenu/api/internal/session"
)

// Errors returned by the order service.
var (
	ErrNoSession       = errors.New("no active table session")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
	ErrDishUnavailable = errors.New("dish no longer available")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrOrderNotFound   = errors.New("order not found")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	database.DBTX
	TxBeginner
}

// OrderStore defines the DB methods needed to write orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderLine(ctx context.Context, arg database.CreateOrderLineParams) (database.OrderLine, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CartStore is satisfied by *cart.RedisStore.
type CartStore interface {
	Load(ctx context.Context, sess *session.Session) (*cart.Cart, error)
	Clear(ctx context.Context, sess *session.Session) error
	Lock(ctx context.Context, sess *session.Session) (func(), error)
}

// SubmitResult is the persisted order with its lines.
type SubmitResult struct {
	Order database.Order
	Lines []database.OrderLine
}

// OrderService handles order submission and the status workflow.
type OrderService struct {
	db        DB
	newStore  NewOrderStore
	carts     CartStore
	publisher events.Publisher
	currency  money.Currency
}

// NewOrderService creates a new OrderService.
func NewOrderService(db DB, newStore NewOrderStore, carts CartStore, publisher events.Publisher, currency money.Currency) *OrderService {
	return &OrderService{
		db:        db,
		newStore:  newStore,
		carts:     carts,
		publisher: publisher,
		currency:  currency,
	}
}

// Submit turns the session's cart into an order. The header and all lines
// are written in one transaction; the cart is cleared only after commit and
// is left intact on any failure.
func (s *OrderService) Submit(ctx context.Context, sess *session.Session) (*SubmitResult, error) {
	if sess == nil {
		return nil, ErrNoSession
	}

	unlock, err := s.carts.Lock(ctx, sess)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.carts.Load(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	// Prices are recomposed from the snapshot so the total matches the lines.
	c.Reprice()

	result, err := s.submitTx(ctx, sess, c)
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, sess); err != nil {
		log.Printf("ERROR: clear cart after order %s: %v", result.Order.ID, err)
	}

	s.publish(ctx, enum.EventOrderCreated, result.Order)
	return result, nil
}

func (s *OrderService) submitTx(ctx context.Context, sess *session.Session, c *cart.Cart) (*SubmitResult, error) {
	for i, l := range c.Lines {
		if l.Quantity <= 0 || l.Quantity > cart.MaxQuantity {
			return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	total, err := pricing.CheckedOrderTotal(c.Lines)
	if err != nil {
		return nil, fmt.Errorf("order total: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:     sess.TableID,
		TableNumber: sess.TableNumber,
		Total:       int64(total),
		Currency:    s.currency.Code,
		Status:      enum.OrderStatusReceived,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	lines := make([]database.OrderLine, 0, len(c.Lines))
	for i, l := range c.Lines {
		customizations, err := json.Marshal(l.Selections)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: marshal selections: %w", i, err)
		}

		comment := pgtype.Text{}
		if l.Comment != "" {
			comment = pgtype.Text{String: l.Comment, Valid: true}
		}

		line, err := store.CreateOrderLine(ctx, database.CreateOrderLineParams{
			OrderID:        order.ID,
			DishID:         pgtype.UUID{Bytes: l.DishID, Valid: true},
			DishName:       l.DishName,
			Quantity:       int32(l.Quantity),
			UnitPrice:      int64(l.UnitPrice),
			Subtotal:       int64(l.Subtotal()),
			Comment:        comment,
			Customizations: customizations,
			LineNo:         int32(i + 1),
		})
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("line[%d]: %w", i, ErrDishUnavailable)
			}
			return nil, fmt.Errorf("create order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SubmitResult{Order: order, Lines: lines}, nil
}

// UpdateStatus sets an order's status. Any status may follow any other and
// concurrent updates are last-writer-wins.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (database.Order, error) {
	if !enum.IsOrderStatus(status) {
		return database.Order{}, ErrInvalidStatus
	}

	order, err := s.newStore(s.db).UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		Status: status,
		ID:     orderID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("update order status: %w", err)
	}

	s.publish(ctx, enum.EventOrderStatusChanged, order)
	return order, nil
}

// publish never fails the caller; the order is already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, order database.Order) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: order.TableNumber,
		Status:      order.Status,
		Total:       s.currency.Number(money.Amount(order.Total)),
		Currency:    order.Currency,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("ERROR: publish %s for order %s: %v", eventType, order.ID, err)
	}
}

// --- Helpers ---

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
