package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/shophub/supportflow/internal/shop"
)

// orderStatuses are the values the model may pass as a status filter or
// transition target.
var orderStatuses = []string{
	string(shop.StatusProcessing),
	string(shop.StatusShipped),
	string(shop.StatusDelivered),
	string(shop.StatusCancelled),
}

func checkOrderTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "check_order",
		Description: "Check the status and details of a customer order. Use this when the customer asks about their order status, delivery status, or order details. Requires the order ID.",
		Params: []Param{
			{Name: "orderId", Type: ParamString, Description: "The order ID to check.", Required: true},
		},
		Run: func(ctx context.Context, args Args) Result {
			orderID := args.String("orderId")
			order, res := fetchOwnedOrder(ctx, store, orderID, args.String(userIDKey))
			if order == nil {
				return res
			}
			return OK(orderPayload(order))
		},
	}
}

func myOrdersTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "get_my_orders",
		Description: "Get the authenticated customer's own orders, optionally filtered by status. Use this when the customer asks about their orders without giving an order ID.",
		Params: []Param{
			{Name: "status", Type: ParamEnum, Description: "Optional status filter.", Enum: orderStatuses},
		},
		Run: func(ctx context.Context, args Args) Result {
			userID := args.String(userIDKey)
			if userID == "" {
				return Failure("You need to be logged in for me to look up your orders.")
			}

			orders, err := store.OrdersByUser(ctx, userID, shop.OrderStatus(args.String("status")))
			if err != nil {
				return Failure("Error fetching your orders. Please try again.")
			}

			// No matching orders is a normal answer, not a failure.
			payloads := make([]map[string]any, 0, len(orders))
			for i := range orders {
				payloads = append(payloads, orderPayload(&orders[i]))
			}
			return OK(map[string]any{
				"count":  len(orders),
				"orders": payloads,
			})
		},
	}
}

func updateOrderStatusTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "update_order_status",
		Description: "Update an order's status. Allowed transitions: Processing to Shipped or Cancelled, Shipped to Delivered or Cancelled. Delivered and Cancelled orders cannot change.",
		Params: []Param{
			{Name: "orderId", Type: ParamString, Description: "The order ID to update.", Required: true},
			{Name: "status", Type: ParamEnum, Description: "The new order status.", Required: true, Enum: orderStatuses},
		},
		Run: func(ctx context.Context, args Args) Result {
			orderID := args.String("orderId")
			target := shop.OrderStatus(args.String("status"))

			if _, res := fetchOwnedOrder(ctx, store, orderID, args.String(userIDKey)); !res.Success {
				return res
			}

			order, err := store.UpdateOrderStatus(ctx, orderID, target)
			if err != nil {
				if errors.Is(err, shop.ErrInvalidTransition) {
					return Failure(fmt.Sprintf("That status change isn't allowed: %v. Orders move Processing -> Shipped/Cancelled and Shipped -> Delivered/Cancelled.", err))
				}
				return Failure("Error updating the order. Please try again.")
			}

			return OK(orderPayload(order))
		},
	}
}

func allOrdersTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "get_all_orders",
		Description: "List all orders in the store, optionally filtered by status. For support staff reviewing pending or problem orders.",
		Params: []Param{
			{Name: "status", Type: ParamEnum, Description: "Optional status filter.", Enum: orderStatuses},
		},
		AdminOnly: true,
		Run: func(ctx context.Context, args Args) Result {
			orders, err := store.AllOrders(ctx, shop.OrderStatus(args.String("status")))
			if err != nil {
				return Failure("Error fetching orders. Please try again.")
			}

			payloads := make([]map[string]any, 0, len(orders))
			for i := range orders {
				payloads = append(payloads, orderPayload(&orders[i]))
			}
			return OK(map[string]any{
				"count":  len(orders),
				"orders": payloads,
			})
		},
	}
}

// fetchOwnedOrder validates the ID, loads the order, and enforces
// ownership when a caller identity is present. On failure it returns a
// nil order and the failure result to hand back to the model; access
// denial never leaks the order's data.
func fetchOwnedOrder(ctx context.Context, store *shop.Store, orderID, userID string) (*shop.Order, Result) {
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrInvalidID):
			return nil, Failure("Invalid order ID format. Please provide a valid order ID.")
		case errors.Is(err, shop.ErrNotFound):
			return nil, Failure(fmt.Sprintf("Order #%s not found. Please check the order ID.", orderID))
		default:
			return nil, Failure("Error checking order status. Please try again.")
		}
	}

	if userID != "" && order.UserID != userID {
		return nil, Failure("Access denied: this order belongs to a different customer.")
	}

	return order, OK(nil)
}

func orderPayload(o *shop.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, map[string]any{
			"name":     item.Name,
			"quantity": item.Quantity,
			"price":    item.Price,
		})
	}

	payload := map[string]any{
		"orderId":     o.ID,
		"status":      string(o.Status),
		"totalAmount": o.TotalAmount,
		"items":       items,
		"createdAt":   o.CreatedAt,
	}
	if o.ShippingAddress != "" {
		payload["shippingAddress"] = o.ShippingAddress
	}
	if o.DeliveredAt != nil {
		payload["deliveredAt"] = *o.DeliveredAt
	} else {
		payload["deliveredAt"] = "Not delivered yet"
	}
	return payload
}
