package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/shophub/supportflow/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func seedOrder(t *testing.T, store *Store, status OrderStatus) Order {
	t.Helper()
	ctx := context.Background()
	user, err := store.CreateUser(ctx, User{Name: "Test Customer", Email: "test@example.com"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	order, err := store.CreateOrder(ctx, Order{
		UserID:      user.ID,
		Status:      status,
		TotalAmount: 99,
		Items:       []OrderItem{{Name: "Widget", Quantity: 1, Price: 99}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	return order
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusShipped, false},
		{StatusCancelled, StatusDelivered, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s): got %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, store, StatusProcessing)

	updated, err := store.UpdateOrderStatus(ctx, order.ID, StatusShipped)
	if err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if updated.Status != StatusShipped {
		t.Errorf("expected Shipped, got %s", updated.Status)
	}
	if updated.DeliveredAt != nil {
		t.Error("delivered timestamp should not be set on shipping")
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, store, StatusDelivered)

	_, err := store.UpdateOrderStatus(ctx, order.ID, StatusShipped)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// State must be unchanged after the rejected transition.
	got, err := store.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != StatusDelivered {
		t.Errorf("status changed after rejected transition: %s", got.Status)
	}
}

func TestUpdateOrderStatusStampsDelivery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	order := seedOrder(t, store, StatusShipped)

	updated, err := store.UpdateOrderStatus(ctx, order.ID, StatusDelivered)
	if err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if updated.DeliveredAt == nil {
		t.Fatal("expected delivered timestamp to be stamped")
	}
}

func TestGetOrderInvalidID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetOrder(context.Background(), "not-a-uuid")
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	_, err = store.GetOrder(context.Background(), uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrdersByUserStatusFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user, err := store.CreateUser(ctx, User{Name: "Filter", Email: "filter@example.com"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	for _, status := range []OrderStatus{StatusProcessing, StatusShipped} {
		if _, err := store.CreateOrder(ctx, Order{UserID: user.ID, Status: status}); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	all, err := store.OrdersByUser(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("OrdersByUser failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 orders, got %d", len(all))
	}

	shipped, err := store.OrdersByUser(ctx, user.ID, StatusShipped)
	if err != nil {
		t.Fatalf("OrdersByUser failed: %v", err)
	}
	if len(shipped) != 1 || shipped[0].Status != StatusShipped {
		t.Errorf("status filter not applied: %+v", shipped)
	}
}

func TestSearchProducts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seed := []Product{
		{Name: "iPhone 15 Pro", Description: "flagship smartphone", Category: "Electronics", Price: 999, Stock: 50},
		{Name: "AirPods Pro", Description: "wireless earbuds", Category: "Electronics", Price: 249, Stock: 100},
		{Name: "Running Shoes", Description: "daily training shoes", Category: "Fashion", Price: 120, Stock: 75},
	}
	for _, p := range seed {
		if _, err := store.CreateProduct(ctx, p); err != nil {
			t.Fatalf("CreateProduct failed: %v", err)
		}
	}

	results, err := store.SearchProducts(ctx, "pro", "", 10)
	if err != nil {
		t.Fatalf("SearchProducts failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches for 'pro', got %d", len(results))
	}
	// Ordered by stock descending.
	if results[0].Name != "AirPods Pro" {
		t.Errorf("expected highest-stock match first, got %q", results[0].Name)
	}

	fashion, err := store.SearchProducts(ctx, "shoes", "Fashion", 10)
	if err != nil {
		t.Fatalf("SearchProducts failed: %v", err)
	}
	if len(fashion) != 1 {
		t.Errorf("category filter not applied: %+v", fashion)
	}

	none, err := store.SearchProducts(ctx, "nonexistent", "", 10)
	if err != nil {
		t.Fatalf("SearchProducts failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestUpdateStockRejectsNegative(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p, err := store.CreateProduct(ctx, Product{Name: "Widget", Stock: 5})
	if err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}

	_, err = store.UpdateStock(ctx, p.ID, -1)
	if !errors.Is(err, ErrNegativeStock) {
		t.Fatalf("expected ErrNegativeStock, got %v", err)
	}

	got, err := store.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Stock != 5 {
		t.Errorf("stock changed after rejected update: %d", got.Stock)
	}

	updated, err := store.UpdateStock(ctx, p.ID, 12)
	if err != nil {
		t.Fatalf("UpdateStock failed: %v", err)
	}
	if updated.Stock != 12 {
		t.Errorf("expected stock 12, got %d", updated.Stock)
	}
}
