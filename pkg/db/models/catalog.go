package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// The records in this file belong to external services (catalog, accounts,
// logistics). The engine only reads them to validate references.

// DeliveryPoint is a pickup location consumers collect their baskets from.
type DeliveryPoint struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Address   string    `gorm:"column:address" json:"address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Market is a sale channel that can take part in cycles.
type Market struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// BasketType ("cesta") is a named bundle sold as a unit.
type BasketType struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string             `gorm:"column:name;not null" json:"name"`
	MaxPrice  decimal.Decimal    `gorm:"column:max_price;type:numeric(12,2);not null" json:"maxPrice"`
	Status    enums.BasketStatus `gorm:"column:status;not null;default:'ativo'" json:"status"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

type Product struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Unit      string    `gorm:"column:unit;not null" json:"unit"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// User is either a supplier, a consumer, or an operator.
type User struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Email     string         `gorm:"column:email;not null" json:"email"`
	Role      enums.UserRole `gorm:"column:role;not null" json:"role"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
