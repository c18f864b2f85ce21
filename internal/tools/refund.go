package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/shop"
)

// defaultReturnWindowDays is the fallback return window used when no
// day-count can be extracted from the retrieved policy text.
const defaultReturnWindowDays = 30

// dayCountPattern extracts the first day-count mentioned in policy text.
// This is knowingly heuristic: text naming several day-counts wins on
// first match.
var dayCountPattern = regexp.MustCompile(`(\d+)\s*(?:-|\s)?day`)

// refundEligibilityTool composes deterministic order state, retrieved
// policy text, date arithmetic and rule evaluation into one structured
// answer.
func refundEligibilityTool(store *shop.Store, retriever PolicyRetriever) *Tool {
	return &Tool{
		Name:        "check_refund_eligibility",
		Description: "Check whether an order is still within the return window and eligible for a refund, based on the store's return policy. Requires the order ID.",
		Params: []Param{
			{Name: "orderId", Type: ParamString, Description: "The order ID to check refund eligibility for.", Required: true},
		},
		Run: func(ctx context.Context, args Args) Result {
			order, res := fetchOwnedOrder(ctx, store, args.String("orderId"), args.String(userIDKey))
			if order == nil {
				return res
			}

			windowDays := defaultReturnWindowDays
			policySource := "default policy"
			chunks, err := retriever.Retrieve(ctx, "return eligibility requirements", 2)
			if err == nil {
				if days, ok := extractReturnWindow(chunks); ok {
					windowDays = days
					policySource = "store return policy"
				}
			}
			// Retrieval failure falls back to the default window: the
			// customer still gets an answer.

			elapsedDays := int(time.Since(order.CreatedAt).Hours() / 24)
			daysRemaining := windowDays - elapsedDays
			if daysRemaining < 0 {
				daysRemaining = 0
			}

			withinWindow := elapsedDays <= windowDays
			notCancelled := order.Status != shop.StatusCancelled
			eligible := withinWindow && notCancelled

			var reasons []string
			if withinWindow {
				reasons = append(reasons, fmt.Sprintf("Order placed %d days ago, within the %d-day return window (%s).", elapsedDays, windowDays, policySource))
			} else {
				reasons = append(reasons, fmt.Sprintf("Order placed %d days ago, outside the %d-day return window (%s).", elapsedDays, windowDays, policySource))
			}
			if !notCancelled {
				reasons = append(reasons, "Cancelled orders are not eligible for refunds.")
			}

			return OK(map[string]any{
				"orderId":       order.ID,
				"eligible":      eligible,
				"windowDays":    windowDays,
				"elapsedDays":   elapsedDays,
				"daysRemaining": daysRemaining,
				"reasons":       reasons,
			})
		},
	}
}

// extractReturnWindow scans retrieved policy chunks for a day-count.
func extractReturnWindow(chunks []kb.ScoredChunk) (int, bool) {
	for _, c := range chunks {
		if m := dayCountPattern.FindStringSubmatch(c.Chunk.Content); m != nil {
			if days, err := strconv.Atoi(m[1]); err == nil && days > 0 {
				return days, true
			}
		}
	}
	return 0, false
}
