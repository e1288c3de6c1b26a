package payments

import (
	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

// ConsumerTotal is the amount one consumer owes in one market.
type ConsumerTotal struct {
	UserID   int64
	MarketID int64
	Amount   decimal.Decimal
}

// ConsumerTotals groups order totals per (consumer, market) in first-seen
// order. Cancelled orders are ignored. Orders without a market are charged
// to fallbackMarket; when that is nil their IDs are returned as unattributed.
func ConsumerTotals(list []models.ConsumerOrder, fallbackMarket *int64) ([]ConsumerTotal, []int64) {
	type key struct{ user, market int64 }
	index := make(map[key]int)
	var out []ConsumerTotal
	var unattributed []int64
	for _, o := range list {
		if o.Status == enums.OrderStatusCancelled {
			continue
		}
		amount := orders.OrderTotal(o.Lines)
		if amount.IsZero() {
			continue
		}
		market := o.MarketID
		if market == nil {
			market = fallbackMarket
		}
		if market == nil {
			unattributed = append(unattributed, o.ID)
			continue
		}
		k := key{o.UserID, *market}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, ConsumerTotal{UserID: o.UserID, MarketID: *market, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(amount)
	}
	return out, unattributed
}

// DirectSaleMarket picks the first venda_direta market from associations
// already sorted by serving order.
func DirectSaleMarket(assocs []models.MarketCycle) *int64 {
	for _, a := range assocs {
		if a.SaleType == enums.SaleTypeDirectSale {
			id := a.MarketID
			return &id
		}
	}
	return nil
}

// BuildPayments turns grouped totals into pending payment rows, dropping zero amounts.
func BuildPayments(cycleID int64, suppliers []offers.SupplierTotal, consumers []ConsumerTotal) []models.Payment {
	var out []models.Payment
	for _, s := range suppliers {
		if s.Amount.IsZero() {
			continue
		}
		out = append(out, models.Payment{
			Type:     enums.PaymentTypeSupplier,
			Amount:   s.Amount,
			Status:   enums.PaymentStatusPending,
			CycleID:  cycleID,
			MarketID: s.MarketID,
			UserID:   s.SupplierID,
		})
	}
	for _, c := range consumers {
		out = append(out, models.Payment{
			Type:     enums.PaymentTypeConsumer,
			Amount:   c.Amount,
			Status:   enums.PaymentStatusPending,
			CycleID:  cycleID,
			MarketID: c.MarketID,
			UserID:   c.UserID,
		})
	}
	return out
}
