package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every accepted order status in workflow order.
var OrderStatuses = []string{
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
	OrderStatusCancelled,
}

// IsOrderStatus reports whether s is one of the order status labels.
func IsOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ── Borderline (CHECK constrained in DB) ──

const (
	SelectionTypeSingle   = "single"
	SelectionTypeMultiple = "multiple"
)

func IsSelectionType(s string) bool {
	return s == SelectionTypeSingle || s == SelectionTypeMultiple
}

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)

func IsUserRole(s string) bool {
	return s == UserRoleAdmin || s == UserRoleStaff
}

// ── Event types (no DB constraint) ──

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)
