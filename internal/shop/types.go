package shop

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

var (
	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned when an identifier fails format validation.
	ErrInvalidID = errors.New("invalid identifier format")
	// ErrInvalidTransition is returned for an order status change outside
	// the allowed transition table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNegativeStock is returned when a stock update would set a
	// negative quantity.
	ErrNegativeStock = errors.New("stock quantity cannot be negative")
)

// allowedTransitions is the closed order-status transition table. Any
// transition not listed here is rejected; Delivered and Cancelled are
// terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a recognized order status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ValidateOrderID checks identifier format before any lookup. Order IDs
// are UUIDs; a malformed ID is a caller error, not a missing order.
func ValidateOrderID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// User is a registered customer.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Product is one catalog entry.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	CreatedAt   time.Time
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string
	Name      string
	Quantity  int
	Price     float64
}

// Order is one customer order with its items.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	TotalAmount     float64
	ShippingAddress string
	Items           []OrderItem
	CreatedAt       time.Time
	DeliveredAt     *time.Time
}
