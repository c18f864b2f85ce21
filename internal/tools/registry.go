package tools

import (
	"context"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/memory"
	"github.com/shophub/supportflow/internal/shop"
)

// PolicyRetriever is the slice of the retriever the refund tool needs:
// policy text lookup by free-text query.
type PolicyRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]kb.ScoredChunk, error)
}

// Deps are the backend collaborators the tool set operates on.
type Deps struct {
	Shop      *shop.Store
	Retriever PolicyRetriever
	Memory    *memory.Store
}

// NewEcommerceRegistry builds the fixed tool set for the support agent.
func NewEcommerceRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(checkOrderTool(deps.Shop))
	r.Register(myOrdersTool(deps.Shop))
	r.Register(searchProductsTool(deps.Shop))
	r.Register(updateOrderStatusTool(deps.Shop))
	r.Register(updateStockTool(deps.Shop))
	r.Register(allOrdersTool(deps.Shop))
	r.Register(refundEligibilityTool(deps.Shop, deps.Retriever))
	r.Register(escalateTool(deps.Memory))
	return r
}
