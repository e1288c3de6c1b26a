package cycles

import (
	"time"

	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// CreateCycleInput carries the fields an operator sets when opening a cycle.
type CreateCycleInput struct {
	Name            string     `json:"name"`
	OfferStartsAt   *time.Time `json:"offerStartsAt"`
	OfferEndsAt     *time.Time `json:"offerEndsAt"`
	ExtraStartsAt   *time.Time `json:"extraStartsAt"`
	ExtraEndsAt     *time.Time `json:"extraEndsAt"`
	PickupStartsAt  *time.Time `json:"pickupStartsAt"`
	PickupEndsAt    *time.Time `json:"pickupEndsAt"`
	DeliveryPointID int64      `json:"deliveryPointId"`
}

// UpdateCycleInput is a patch; nil fields are left untouched.
type UpdateCycleInput struct {
	Name            *string            `json:"name"`
	OfferStartsAt   *time.Time         `json:"offerStartsAt"`
	OfferEndsAt     *time.Time         `json:"offerEndsAt"`
	ExtraStartsAt   *time.Time         `json:"extraStartsAt"`
	ExtraEndsAt     *time.Time         `json:"extraEndsAt"`
	PickupStartsAt  *time.Time         `json:"pickupStartsAt"`
	PickupEndsAt    *time.Time         `json:"pickupEndsAt"`
	DeliveryPointID *int64             `json:"deliveryPointId"`
	Status          *enums.CycleStatus `json:"status"`
	Active          *bool              `json:"active"`
}

// Dependents counts the records that keep a cycle from being deleted.
type Dependents struct {
	MarketCycles   int64 `json:"marketCycles"`
	CycleBaskets   int64 `json:"cycleBaskets"`
	Payments       int64 `json:"payments"`
	ConsumerOrders int64 `json:"consumerOrders"`
	SupplierOffers int64 `json:"supplierOffers"`
}

func (d Dependents) Total() int64 {
	return d.MarketCycles + d.CycleBaskets + d.Payments + d.ConsumerOrders + d.SupplierOffers
}
