package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SupplierOffer groups what one supplier puts up for sale in a market of a cycle.
type SupplierOffer struct {
	ID         int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID    int64       `gorm:"column:cycle_id;not null" json:"cycleId"`
	MarketID   int64       `gorm:"column:market_id;not null" json:"marketId"`
	SupplierID int64       `gorm:"column:supplier_id;not null" json:"supplierId"`
	Lines      []OfferLine `gorm:"foreignKey:OfferID" json:"lines,omitempty"`
	CreatedAt  time.Time   `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

type OfferLine struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OfferID   int64           `gorm:"column:offer_id;not null" json:"offerId"`
	ProductID int64           `gorm:"column:product_id;not null" json:"productId"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unitPrice"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Total is quantity times unit price.
func (l OfferLine) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
