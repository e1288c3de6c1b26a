package models

import (
	"time"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// Cycle is a time-boxed sales round. Only the offer window is mandatory.
type Cycle struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string            `gorm:"column:name;not null" json:"name"`
	OfferStartsAt   time.Time         `gorm:"column:offer_starts_at;not null" json:"offerStartsAt"`
	OfferEndsAt     time.Time         `gorm:"column:offer_ends_at;not null" json:"offerEndsAt"`
	ExtraStartsAt   *time.Time        `gorm:"column:extra_starts_at" json:"extraStartsAt,omitempty"`
	ExtraEndsAt     *time.Time        `gorm:"column:extra_ends_at" json:"extraEndsAt,omitempty"`
	PickupStartsAt  *time.Time        `gorm:"column:pickup_starts_at" json:"pickupStartsAt,omitempty"`
	PickupEndsAt    *time.Time        `gorm:"column:pickup_ends_at" json:"pickupEndsAt,omitempty"`
	DeliveryPointID int64             `gorm:"column:delivery_point_id;not null" json:"deliveryPointId"`
	Status          enums.CycleStatus `gorm:"column:status;not null;default:'oferta'" json:"status"`
	Active          bool              `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
