package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// ConsumerOrder holds a consumer's direct-sale selections within a cycle.
type ConsumerOrder struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID   int64             `gorm:"column:cycle_id;not null" json:"cycleId"`
	UserID    int64             `gorm:"column:user_id;not null" json:"userId"`
	MarketID  *int64            `gorm:"column:market_id" json:"marketId,omitempty"`
	Status    enums.OrderStatus `gorm:"column:status;not null;default:'pendente'" json:"status"`
	Lines     []OrderLine       `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// OrderLine keeps the offered price alongside the settled purchase price.
type OrderLine struct {
	ID            int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID       int64            `gorm:"column:order_id;not null" json:"orderId"`
	ProductID     int64            `gorm:"column:product_id;not null" json:"productId"`
	Quantity      decimal.Decimal  `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	OfferedPrice  decimal.Decimal  `gorm:"column:offered_price;type:numeric(12,2);not null" json:"offeredPrice"`
	PurchasePrice *decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2)" json:"purchasePrice,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// EffectivePrice prefers the purchase price when one was recorded.
func (l OrderLine) EffectivePrice() decimal.Decimal {
	if l.PurchasePrice != nil {
		return *l.PurchasePrice
	}
	return l.OfferedPrice
}

// Total is the effective price times quantity.
func (l OrderLine) Total() decimal.Decimal {
	return l.EffectivePrice().Mul(l.Quantity)
}
