package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// MarketCycle binds a market to a cycle. The (cycle_id, market_id) pair is unique.
type MarketCycle struct {
	ID                   int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID              int64            `gorm:"column:cycle_id;not null" json:"cycleId"`
	MarketID             int64            `gorm:"column:market_id;not null" json:"marketId"`
	SaleType             enums.SaleType   `gorm:"column:sale_type;not null" json:"saleType"`
	ServingOrder         int              `gorm:"column:serving_order;not null;default:0" json:"servingOrder"`
	DeliveryPointID      int64            `gorm:"column:delivery_point_id;not null" json:"deliveryPointId"`
	BasketsCount         *int             `gorm:"column:baskets_count" json:"basketsCount,omitempty"`
	TargetPricePerBasket *decimal.Decimal `gorm:"column:target_price_per_basket;type:numeric(12,2)" json:"targetPricePerBasket,omitempty"`
	TargetPricePerLot    *decimal.Decimal `gorm:"column:target_price_per_lot;type:numeric(12,2)" json:"targetPricePerLot,omitempty"`
	CreatedAt            time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt            time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
