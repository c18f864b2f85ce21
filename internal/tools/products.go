package tools

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shophub/supportflow/internal/shop"
)

func searchProductsTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "search_products",
		Description: "Search the product catalog by free-text query and/or category. Matching is case-insensitive and partial. Use this when customers ask about products, availability, or recommendations.",
		Params: []Param{
			{Name: "query", Type: ParamString, Description: "Free-text search over product name, description and category."},
			{Name: "category", Type: ParamString, Description: "Product category to filter by (e.g. 'electronics', 'clothing', 'books')."},
			{Name: "limit", Type: ParamNumber, Description: "Maximum number of products to return (default: 5)."},
		},
		Run: func(ctx context.Context, args Args) Result {
			limit := 5
			if n, ok := args.Number("limit"); ok && n > 0 {
				limit = int(n)
			}

			products, err := store.SearchProducts(ctx, args.String("query"), args.String("category"), limit)
			if err != nil {
				return Failure("Error looking up products. Please try again.")
			}

			// Empty catalog matches are a normal outcome.
			payloads := make([]map[string]any, 0, len(products))
			for _, p := range products {
				stock := "Out of Stock"
				if p.Stock > 0 {
					stock = "In Stock"
				}
				payloads = append(payloads, map[string]any{
					"id":          p.ID,
					"name":        p.Name,
					"description": Truncate(p.Description, 100),
					"price":       fmt.Sprintf("$%.2f", p.Price),
					"stock":       stock,
					"category":    p.Category,
				})
			}
			return OK(map[string]any{
				"count":    len(products),
				"products": payloads,
			})
		},
	}
}

func updateStockTool(store *shop.Store) *Tool {
	return &Tool{
		Name:        "update_product_stock",
		Description: "Set a product's stock quantity. For support staff correcting inventory counts.",
		Params: []Param{
			{Name: "productId", Type: ParamString, Description: "The product ID to update.", Required: true},
			{Name: "quantity", Type: ParamNumber, Description: "The new stock quantity. Must not be negative.", Required: true},
		},
		AdminOnly: true,
		Run: func(ctx context.Context, args Args) Result {
			quantity, ok := args.Number("quantity")
			if !ok {
				return Failure("A numeric quantity is required.")
			}
			if quantity < 0 {
				return Failure("Stock quantity cannot be negative.")
			}

			product, err := store.UpdateStock(ctx, args.String("productId"), int(quantity))
			if err != nil {
				if errors.Is(err, shop.ErrNotFound) {
					return Failure("Product not found. Please check the product ID.")
				}
				return Failure("Error updating stock. Please try again.")
			}

			return OK(map[string]any{
				"productId": product.ID,
				"name":      product.Name,
				"stock":     product.Stock,
			})
		},
	}
}

// Truncate limits s to roughly n bytes with an ellipsis suffix,
// backing up to a rune boundary so the result stays valid UTF-8.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
