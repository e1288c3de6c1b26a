package orders

import (
	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// CreateOrderInput opens a consumer order in a cycle. Status defaults to pendente.
type CreateOrderInput struct {
	CycleID  int64              `json:"cycleId"`
	UserID   int64              `json:"userId"`
	MarketID *int64             `json:"marketId"`
	Status   *enums.OrderStatus `json:"status"`
}

type AddProductInput struct {
	ProductID int64           `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// OrderTotal sums each line's effective price times its quantity.
func OrderTotal(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}
