package offers

import (
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// TotalQuantity sums the offered quantity across lines.
func TotalQuantity(lines []models.OfferLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity)
	}
	return total
}

// LowestUnitPrice returns the cheapest unit price among lines, or false when lines is empty.
func LowestUnitPrice(lines []models.OfferLine) (decimal.Decimal, bool) {
	if len(lines) == 0 {
		return decimal.Zero, false
	}
	lowest := lines[0].UnitPrice
	for _, l := range lines[1:] {
		if l.UnitPrice.LessThan(lowest) {
			lowest = l.UnitPrice
		}
	}
	return lowest, true
}

// SupplierTotal is the amount owed to one supplier in one market.
type SupplierTotal struct {
	SupplierID int64
	MarketID   int64
	Amount     decimal.Decimal
}

// TotalsBySupplier groups offer-line totals per (supplier, market) in first-seen order.
func TotalsBySupplier(offers []models.SupplierOffer) []SupplierTotal {
	type key struct{ supplier, market int64 }
	index := make(map[key]int)
	var out []SupplierTotal
	for _, o := range offers {
		k := key{o.SupplierID, o.MarketID}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, SupplierTotal{SupplierID: o.SupplierID, MarketID: o.MarketID, Amount: decimal.Zero})
		}
		for _, l := range o.Lines {
			out[i].Amount = out[i].Amount.Add(l.Total())
		}
	}
	return out
}
