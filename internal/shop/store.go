package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shophub/supportflow/internal/db"
)

// Store provides CRUD operations for users, products and orders.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateUser inserts a user. If u.ID is empty a UUID is generated.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
		u.ID, u.Name, u.Email)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// CreateProduct inserts a product. If p.ID is empty a UUID is generated.
func (s *Store) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, category, price, stock)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

// CreateOrder inserts an order and its items. If o.ID is empty a UUID is
// generated. CreatedAt is honored when set, which matters for refund
// window arithmetic in tests and backfills.
func (s *Store) CreateOrder(ctx context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = StatusProcessing
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Order{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var deliveredAt any
	if o.DeliveredAt != nil {
		deliveredAt = o.DeliveredAt.UTC().Format(sqliteTimeLayout)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total_amount, shipping_address, created_at, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, string(o.Status), o.TotalAmount, o.ShippingAddress,
		o.CreatedAt.Format(sqliteTimeLayout), deliveredAt); err != nil {
		return Order{}, fmt.Errorf("inserting order: %w", err)
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, quantity, price)
			 VALUES (?, ?, ?, ?, ?)`,
			o.ID, item.ProductID, item.Name, item.Quantity, item.Price); err != nil {
			return Order{}, fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Order{}, fmt.Errorf("committing order: %w", err)
	}
	return o, nil
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

// GetOrder fetches an order with its items. The ID is format-validated
// before touching storage.
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	if err := ValidateOrderID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, created_at, delivered_at
		FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	items, err := s.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// OrdersByUser returns a user's orders, most recent first, optionally
// filtered by status. No matching orders is a normal empty result.
func (s *Store) OrdersByUser(ctx context.Context, userID string, status OrderStatus) ([]Order, error) {
	query := `SELECT id, user_id, status, total_amount, shipping_address, created_at, delivered_at
		FROM orders WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	return s.queryOrders(ctx, query, args...)
}

// AllOrders returns every order, optionally filtered by status. Intended
// for elevated-privilege callers; the privilege boundary is enforced by
// the auth layer in front of the agent, not here.
func (s *Store) AllOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	query := `SELECT id, user_id, status, total_amount, shipping_address, created_at, delivered_at
		FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	return s.queryOrders(ctx, query, args...)
}

// UpdateOrderStatus applies a status transition, enforcing the allowed
// transition table. A transition into Delivered stamps delivered_at.
// Rejected transitions leave the stored status unchanged.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, to OrderStatus) (*Order, error) {
	if err := ValidateOrderID(id); err != nil {
		return nil, err
	}
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, created_at, delivered_at
		FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	if to == StatusDelivered {
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ?, delivered_at = ? WHERE id = ?`,
			string(to), now.Format(sqliteTimeLayout), id); err != nil {
			return nil, fmt.Errorf("updating order status: %w", err)
		}
		o.DeliveredAt = &now
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ? WHERE id = ?`, string(to), id); err != nil {
			return nil, fmt.Errorf("updating order status: %w", err)
		}
	}
	o.Status = to

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}
	return o, nil
}

// SearchProducts matches products by free-text query and/or category.
// Matching is case-insensitive and partial over name, description and
// category. Both filters empty returns the full catalog.
func (s *Store) SearchProducts(ctx context.Context, query, category string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}

	var (
		clauses []string
		args    []any
	)
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		clauses = append(clauses, `(LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)`)
		args = append(args, like, like, like)
	}
	if category != "" {
		clauses = append(clauses, `LOWER(category) LIKE ?`)
		args = append(args, "%"+strings.ToLower(category)+"%")
	}

	sqlQuery := `SELECT id, name, description, category, price, stock FROM products`
	if len(clauses) > 0 {
		sqlQuery += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	sqlQuery += ` ORDER BY stock DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct fetches a single product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, price, stock FROM products WHERE id = ?`, id)

	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	return &p, nil
}

// UpdateStock sets a product's stock quantity. Negative quantities are
// rejected before touching storage.
func (s *Store) UpdateStock(ctx context.Context, id string, quantity int) (*Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeStock, quantity)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return nil, fmt.Errorf("updating stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return s.GetProduct(ctx, id)
}

func (s *Store) orderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = ?`, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o           Order
		status      string
		createdAt   time.Time
		deliveredAt sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.ShippingAddress, &createdAt, &deliveredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	o.Status = OrderStatus(status)
	// The driver returns DATETIME columns as time.Time; scanning into a
	// string would yield RFC3339 text that sqliteTimeLayout cannot parse.
	o.CreatedAt = createdAt
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	return &o, nil
}
