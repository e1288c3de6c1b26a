package payments

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/marketcycles"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/internal/repo"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages payment records and cycle settlement.
type Service interface {
	Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error)
	Get(ctx context.Context, id int64) (*models.Payment, error)
	List(ctx context.Context, filter Filter) (*pagination.Page[models.Payment], error)
	MarkPaid(ctx context.Context, id int64) (*models.Payment, error)
	Cancel(ctx context.Context, id int64) (*models.Payment, error)
	Delete(ctx context.Context, id int64) error
	GenerateForCycle(ctx context.Context, cycleID int64) (*Generation, error)
	TotalsForCycle(ctx context.Context, cycleID int64) (*Totals, error)
}

type ServiceParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Repo         Repository
	Catalog      catalog.Repository
	Offers       offers.Repository
	Orders       orders.Repository
	MarketCycles marketcycles.Repository
	Metrics      *metrics.SettlementMetrics
	Clock        func() time.Time
}

type service struct {
	logg         *logger.Logger
	tx           txRunner
	repo         Repository
	catalog      catalog.Repository
	offers       offers.Repository
	orders       orders.Repository
	marketCycles marketcycles.Repository
	metrics      *metrics.SettlementMetrics
	now          func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.MarketCycles == nil {
		return nil, fmt.Errorf("market cycles repository required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		logg:         params.Logger,
		tx:           params.DB,
		repo:         params.Repo,
		catalog:      params.Catalog,
		offers:       params.Offers,
		orders:       params.Orders,
		marketCycles: params.MarketCycles,
		metrics:      params.Metrics,
		now:          clock,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	payment := &models.Payment{
		Type:     input.Type,
		Status:   enums.PaymentStatusPending,
		CycleID:  input.CycleID,
		MarketID: input.MarketID,
		UserID:   input.UserID,
		Note:     input.Note,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		err := catalog.Require(ctx, s.catalog.WithTx(tx),
			catalog.Ref{Field: "cycleId", Table: catalog.TableCycles, ID: payment.CycleID},
			catalog.Ref{Field: "marketId", Table: catalog.TableMarkets, ID: payment.MarketID},
			catalog.Ref{Field: "userId", Table: catalog.TableUsers, ID: payment.UserID},
		)
		if err != nil {
			return err
		}
		if err := validateInput(input); err != nil {
			return err
		}
		payment.Amount = *input.Amount
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithMarketID(s.logg.WithCycleID(ctx, payment.CycleID), payment.MarketID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"payment_id": payment.ID, "type": payment.Type}), "payment created")
	return payment, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Payment, error) {
	return findPayment(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, filter Filter) (*pagination.Page[models.Payment], error) {
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, invalidField("type", fmt.Sprintf("type %q is not supported", *filter.Type))
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, invalidField("status", fmt.Sprintf("status %q is not supported", *filter.Status))
	}
	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}

	rows, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(filter.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payments")
	}

	items, next := pagination.Trim(rows, filter.Limit, func(p models.Payment) int64 { return p.ID })
	if items == nil {
		items = []models.Payment{}
	}
	return &pagination.Page[models.Payment]{Items: items, Total: total, NextCursor: next}, nil
}

// MarkPaid stamps the payment date. Paying an already paid record is a no-op.
func (s *service) MarkPaid(ctx context.Context, id int64) (*models.Payment, error) {
	return s.transition(ctx, id, enums.PaymentStatusPaid)
}

// Cancel is terminal. Cancelling twice is a no-op; a paid record cannot be cancelled.
func (s *service) Cancel(ctx context.Context, id int64) (*models.Payment, error) {
	return s.transition(ctx, id, enums.PaymentStatusCancelled)
}

func (s *service) transition(ctx context.Context, id int64, to enums.PaymentStatus) (*models.Payment, error) {
	var (
		result  *models.Payment
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payments := s.repo.WithTx(tx)
		payment, err := findPayment(ctx, payments, id)
		if err != nil {
			return err
		}
		if payment.Status == to {
			result = payment
			return nil
		}
		if payment.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("payment is %s and cannot become %s", payment.Status, to)).
				WithDetails(map[string]any{"id": id, "status": payment.Status})
		}

		var paidAt *time.Time
		if to == enums.PaymentStatusPaid {
			now := s.now().UTC()
			paidAt = &now
		}
		affected, err := payments.Transition(ctx, id, payment.Status, to, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment status changed concurrently").
				WithDetails(map[string]any{"id": id})
		}
		payment.Status = to
		if paidAt != nil {
			payment.PaidAt = paidAt
		}
		result = payment
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncTransition(string(to))
		ctx = s.logg.WithCycleID(ctx, result.CycleID)
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"payment_id": id, "status": to}), "payment status changed")
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.Required("id")
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "payment_id", id), "payment deleted")
	return nil
}

// GenerateForCycle derives one supplier payment per (supplier, market) from
// offer lines and one consumer payment per (consumer, market) from orders.
// It refuses to run once the cycle has any payment.
func (s *service) GenerateForCycle(ctx context.Context, cycleID int64) (gen *Generation, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveGeneration(time.Since(start), err) }()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := catalog.Require(ctx, s.catalog.WithTx(tx), catalog.Ref{Field: "cycleId", Table: catalog.TableCycles, ID: cycleID}); err != nil {
			return err
		}
		payments := s.repo.WithTx(tx)
		existing, err := payments.CountByCycle(ctx, cycleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count payments")
		}
		if existing > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "payments already exist for this cycle").
				WithDetails(map[string]any{"cycleId": cycleID, "existing": existing})
		}

		cycleOffers, err := s.offers.WithTx(tx).ListByCycle(ctx, cycleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offers")
		}
		cycleOrders, err := s.orders.WithTx(tx).ListByCycle(ctx, cycleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
		}
		assocs, err := s.marketCycles.WithTx(tx).ListByCycle(ctx, cycleID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load market associations")
		}

		consumers, unattributed := ConsumerTotals(cycleOrders, DirectSaleMarket(assocs))
		if len(unattributed) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "orders without a market need a venda_direta association on the cycle").
				WithDetails(map[string]any{"cycleId": cycleID, "orderIds": unattributed})
		}

		rows := BuildPayments(cycleID, offers.TotalsBySupplier(cycleOffers), consumers)
		if err := payments.CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payments")
		}

		gen = &Generation{CycleID: cycleID, Payments: rows}
		for _, p := range rows {
			if p.Type == enums.PaymentTypeSupplier {
				gen.Suppliers++
			} else {
				gen.Consumers++
			}
		}
		if gen.Payments == nil {
			gen.Payments = []models.Payment{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.AddGenerated(string(enums.PaymentTypeSupplier), gen.Suppliers)
	s.metrics.AddGenerated(string(enums.PaymentTypeConsumer), gen.Consumers)
	ctx = s.logg.WithFields(s.logg.WithCycleID(ctx, cycleID), map[string]any{"suppliers": gen.Suppliers, "consumers": gen.Consumers})
	s.logg.Info(ctx, "cycle payments generated")
	return gen, nil
}

func (s *service) TotalsForCycle(ctx context.Context, cycleID int64) (*Totals, error) {
	if cycleID <= 0 {
		return nil, pkgerrors.Required("cycleId")
	}
	if err := catalog.Require(ctx, s.catalog, catalog.Ref{Field: "cycleId", Table: catalog.TableCycles, ID: cycleID}); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payments")
	}
	totals := SumTotals(cycleID, rows)
	return &totals, nil
}

// validateInput runs after the reference checks so a missing reference is
// reported first.
func validateInput(input CreatePaymentInput) error {
	if input.Type == "" {
		return pkgerrors.Required("type")
	}
	if !input.Type.IsValid() {
		return invalidField("type", fmt.Sprintf("type %q is not supported", input.Type))
	}
	if input.Amount == nil {
		return pkgerrors.Required("amount")
	}
	if input.Amount.IsNegative() {
		return invalidField("amount", "amount must not be negative")
	}
	return nil
}

func findPayment(ctx context.Context, payments Repository, id int64) (*models.Payment, error) {
	if id <= 0 {
		return nil, pkgerrors.Required("id")
	}
	payment, err := payments.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func invalidField(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
