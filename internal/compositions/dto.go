package compositions

import (
	"github.com/shopspring/decimal"
)

// BindBasketInput links a basket type to a cycle with the number of baskets to assemble.
type BindBasketInput struct {
	CycleID      int64 `json:"cycleId"`
	BasketTypeID int64 `json:"basketTypeId"`
	BasketsCount int   `json:"basketsCount"`
}

// CreateCompositionInput resolves the (cycle, basket type) binding and attaches
// an empty composition to it. With AutoCreateBinding a missing binding is
// created using BasketsCount.
type CreateCompositionInput struct {
	CycleID           int64 `json:"cycleId"`
	BasketTypeID      int64 `json:"basketTypeId"`
	AutoCreateBinding bool  `json:"autoCreateBinding"`
	BasketsCount      int   `json:"basketsCount"`
}

// ProductLine is one (product, per-basket quantity) pair of a composition.
type ProductLine struct {
	ProductID int64           `json:"productId" validate:"gt=0"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// Shortage describes how far offered supply falls short of what is needed.
type Shortage struct {
	Message   string          `json:"message"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

type AvailabilityLine struct {
	ProductID         int64           `json:"productId"`
	QuantityPerBasket decimal.Decimal `json:"quantityPerBasket"`
	Needed            decimal.Decimal `json:"needed"`
	Offered           decimal.Decimal `json:"offered"`
	Shortage          *Shortage       `json:"shortage,omitempty"`
}

// AvailabilityReport compares a composition's needs with the cycle's offers.
type AvailabilityReport struct {
	CompositionID int64              `json:"compositionId"`
	CycleID       int64              `json:"cycleId"`
	BasketsCount  int                `json:"basketsCount"`
	Sufficient    bool               `json:"sufficient"`
	Lines         []AvailabilityLine `json:"lines"`
}
