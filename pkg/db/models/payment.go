package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// Payment is a money-owed record for a cycle: to a supplier or from a consumer.
type Payment struct {
	ID        int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type      enums.PaymentType   `gorm:"column:type;not null" json:"type"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Status    enums.PaymentStatus `gorm:"column:status;not null;default:'pendente'" json:"status"`
	CycleID   int64               `gorm:"column:cycle_id;not null" json:"cycleId"`
	MarketID  int64               `gorm:"column:market_id;not null" json:"marketId"`
	UserID    int64               `gorm:"column:user_id;not null" json:"userId"`
	PaidAt    *time.Time          `gorm:"column:paid_at" json:"paidAt,omitempty"`
	Note      *string             `gorm:"column:note" json:"note,omitempty"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
