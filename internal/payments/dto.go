package payments

import (
	"github.com/shopspring/decimal"

	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

// CreatePaymentInput records a payment by hand. Amount is a pointer so an
// absent value can be told apart from zero.
type CreatePaymentInput struct {
	Type     enums.PaymentType `json:"type"`
	Amount   *decimal.Decimal  `json:"amount"`
	CycleID  int64             `json:"cycleId"`
	MarketID int64             `json:"marketId"`
	UserID   int64             `json:"userId"`
	Note     *string           `json:"note"`
}

// Filter narrows List. Zero or nil fields match everything.
type Filter struct {
	Type     *enums.PaymentType
	Status   *enums.PaymentStatus
	CycleID  int64
	MarketID int64
	UserID   int64
	pagination.Params
}

// Totals is the net settlement of a cycle.
type Totals struct {
	CycleID      int64           `json:"cycleId"`
	TotalReceber decimal.Decimal `json:"totalReceber"`
	TotalPagar   decimal.Decimal `json:"totalPagar"`
	Saldo        decimal.Decimal `json:"saldo"`
}

// Generation reports what GenerateForCycle created.
type Generation struct {
	CycleID   int64            `json:"cycleId"`
	Suppliers int              `json:"suppliers"`
	Consumers int              `json:"consumers"`
	Payments  []models.Payment `json:"payments"`
}

// SumTotals splits non-cancelled payments into receivable and payable sums.
func SumTotals(cycleID int64, payments []models.Payment) Totals {
	t := Totals{CycleID: cycleID, TotalReceber: decimal.Zero, TotalPagar: decimal.Zero}
	for _, p := range payments {
		if p.Status == enums.PaymentStatusCancelled {
			continue
		}
		switch p.Type {
		case enums.PaymentTypeConsumer:
			t.TotalReceber = t.TotalReceber.Add(p.Amount)
		case enums.PaymentTypeSupplier:
			t.TotalPagar = t.TotalPagar.Add(p.Amount)
		}
	}
	t.Saldo = t.TotalReceber.Sub(t.TotalPagar)
	return t
}
