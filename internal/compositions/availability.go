package compositions

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CheckAvailability returns nil when offered covers needed, otherwise the
// shortage with a strictly positive shortfall.
func CheckAvailability(offered, needed decimal.Decimal) *Shortage {
	if offered.GreaterThanOrEqual(needed) {
		return nil
	}
	shortfall := needed.Sub(offered)
	return &Shortage{
		Message:   fmt.Sprintf("offered quantity %s is below the %s needed (short by %s)", offered.String(), needed.String(), shortfall.String()),
		Shortfall: shortfall,
	}
}
