package marketcycles

import (
	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// AssociateInput binds a market to a cycle. Which of the optional fields are
// mandatory depends on SaleType.
type AssociateInput struct {
	CycleID              int64            `json:"cycleId"`
	MarketID             int64            `json:"marketId"`
	SaleType             enums.SaleType   `json:"saleType"`
	ServingOrder         int              `json:"servingOrder"`
	DeliveryPointID      int64            `json:"deliveryPointId"`
	BasketsCount         *int             `json:"basketsCount"`
	TargetPricePerBasket *decimal.Decimal `json:"targetPricePerBasket"`
	TargetPricePerLot    *decimal.Decimal `json:"targetPricePerLot"`
}

// UpdateInput is a patch over an existing association.
type UpdateInput struct {
	SaleType             *enums.SaleType  `json:"saleType"`
	ServingOrder         *int             `json:"servingOrder"`
	DeliveryPointID      *int64           `json:"deliveryPointId"`
	BasketsCount         *int             `json:"basketsCount"`
	TargetPricePerBasket *decimal.Decimal `json:"targetPricePerBasket"`
	TargetPricePerLot    *decimal.Decimal `json:"targetPricePerLot"`
}
