package tools

// displayNames maps tool names to the friendly phrasing shown in
// progress events while a tool runs.
var displayNames = map[string]string{
	"check_order":              "Checking Order Status",
	"get_my_orders":            "Fetching Your Orders",
	"search_products":          "Searching Products",
	"get_all_orders":           "Fetching All Orders",
	"update_order_status":      "Updating Order",
	"update_product_stock":     "Updating Stock",
	"check_refund_eligibility": "Checking Refund Eligibility",
	"escalate_to_human":        "Escalating to Human Support",
}

// DisplayName returns a friendly name for a tool, falling back to the
// raw tool name.
func DisplayName(name string) string {
	if friendly, ok := displayNames[name]; ok {
		return friendly
	}
	return name
}
