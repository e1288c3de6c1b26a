package cycles

import (
	"time"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// PhaseDeadline returns the instant after which the cycle's current phase is
// over, or nil when its windows do not say. Composition runs until the extra
// window opens, or until pickup opens when there is no extra window.
func PhaseDeadline(c models.Cycle) *time.Time {
	switch c.Status {
	case enums.CycleStatusOffer:
		end := c.OfferEndsAt
		return &end
	case enums.CycleStatusComposition:
		if c.ExtraStartsAt != nil {
			return c.ExtraStartsAt
		}
		return c.PickupStartsAt
	case enums.CycleStatusExtra:
		if c.ExtraEndsAt != nil {
			return c.ExtraEndsAt
		}
		return c.PickupStartsAt
	case enums.CycleStatusPickup:
		return c.PickupEndsAt
	default:
		return nil
	}
}

// DueForAdvance reports whether an active cycle has outlived its current phase.
func DueForAdvance(c models.Cycle, now time.Time) bool {
	if !c.Active {
		return false
	}
	deadline := PhaseDeadline(c)
	return deadline != nil && !now.Before(*deadline)
}
