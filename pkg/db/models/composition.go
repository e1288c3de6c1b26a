package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleBasket records how many baskets of one type a cycle will assemble.
type CycleBasket struct {
	ID           int64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleID      int64         `gorm:"column:cycle_id;not null" json:"cycleId"`
	BasketTypeID int64         `gorm:"column:basket_type_id;not null" json:"basketTypeId"`
	BasketsCount int           `gorm:"column:baskets_count;not null" json:"basketsCount"`
	BasketType   *BasketType   `gorm:"foreignKey:BasketTypeID" json:"basketType,omitempty"`
	Compositions []Composition `gorm:"foreignKey:CycleBasketID" json:"compositions,omitempty"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Composition is the recipe of a single basket for one cycle basket binding.
type Composition struct {
	ID            int64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CycleBasketID int64                `gorm:"column:cycle_basket_id;not null" json:"cycleBasketId"`
	Products      []CompositionProduct `gorm:"foreignKey:CompositionID" json:"products"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// CompositionProduct stores the per-basket quantity of a product.
type CompositionProduct struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CompositionID int64           `gorm:"column:composition_id;not null" json:"compositionId"`
	ProductID     int64           `gorm:"column:product_id;not null" json:"productId"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
