package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/internal/marketcycles"
	"github.com/redeciclos/ciclos-backend/internal/offers"
	"github.com/redeciclos/ciclos-backend/internal/orders"
	"github.com/redeciclos/ciclos-backend/pkg/db/dbtest"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/metrics"
	"github.com/redeciclos/ciclos-backend/pkg/pagination"
)

var fixedNow = time.Date(2025, 3, 20, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc    Service
	conn   *gorm.DB
	reg    *prometheus.Registry
	cycle  models.Cycle
	market models.Market
	user   models.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Logger:       logger.New(logger.Options{Output: io.Discard}),
		DB:           client,
		Repo:         NewRepository(conn),
		Catalog:      catalog.NewRepository(conn),
		Offers:       offers.NewRepository(conn),
		Orders:       orders.NewRepository(conn),
		MarketCycles: marketcycles.NewRepository(conn),
		Metrics:      metrics.NewSettlementMetrics(reg),
		Clock:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{
		svc:    svc,
		conn:   conn,
		reg:    reg,
		cycle:  dbtest.Cycle(t, conn),
		market: dbtest.Market(t, conn),
		user:   dbtest.User(t, conn, enums.UserRoleConsumer),
	}
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func (f fixture) input(paymentType enums.PaymentType, amount string) CreatePaymentInput {
	return CreatePaymentInput{
		Type:     paymentType,
		Amount:   decPtr(amount),
		CycleID:  f.cycle.ID,
		MarketID: f.market.ID,
		UserID:   f.user.ID,
	}
}

func (f fixture) payment(t *testing.T, paymentType enums.PaymentType, amount string) *models.Payment {
	t.Helper()
	p, err := f.svc.Create(context.Background(), f.input(paymentType, amount))
	require.NoError(t, err)
	return p
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction runner")
}

func TestCreatePayment(t *testing.T) {
	f := setup(t)
	note := "entrega parcial"
	in := f.input(enums.PaymentTypeConsumer, "42.50")
	in.Note = &note

	p, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, enums.PaymentStatusPending, p.Status)
	assert.True(t, p.Amount.Equal(dec("42.50")))
	assert.Nil(t, p.PaidAt)

	loaded, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Note)
	assert.Equal(t, note, *loaded.Note)
}

func TestCreateRequiresReferences(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreatePaymentInput)
		msg    string
	}{
		{"cycle", func(in *CreatePaymentInput) { in.CycleID = 0 }, "cycleId is required"},
		{"market", func(in *CreatePaymentInput) { in.MarketID = 0 }, "marketId is required"},
		{"user", func(in *CreatePaymentInput) { in.UserID = 0 }, "userId is required"},
		{"reference before amount", func(in *CreatePaymentInput) { in.CycleID = 0; in.Amount = nil }, "cycleId is required"},
		{"amount", func(in *CreatePaymentInput) { in.Amount = nil }, "amount is required"},
		{"type", func(in *CreatePaymentInput) { in.Type = "" }, "type is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input(enums.PaymentTypeSupplier, "10")
			tc.mutate(&in)
			_, err := f.svc.Create(ctx, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
			assert.Equal(t, tc.msg, pkgerrors.As(err).Message())
		})
	}
	assert.Zero(t, dbtest.Count(t, f.conn, "payments"))
}

func TestCreateAmountBoundary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.input(enums.PaymentTypeSupplier, "-0.01"))
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	p, err := f.svc.Create(ctx, f.input(enums.PaymentTypeSupplier, "0"))
	require.NoError(t, err)
	assert.True(t, p.Amount.IsZero())

	in := f.input(enums.PaymentType("doacao"), "1")
	_, err = f.svc.Create(ctx, in)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	in = f.input(enums.PaymentTypeSupplier, "1")
	in.MarketID = 9999
	_, err = f.svc.Create(ctx, in)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Message(), "marketId")
}

func TestMarkPaidStampsDateOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.payment(t, enums.PaymentTypeConsumer, "10")

	paid, err := f.svc.MarkPaid(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(fixedNow))

	again, err := f.svc.MarkPaid(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, again.Status)
	require.NotNil(t, again.PaidAt)
	assert.True(t, again.PaidAt.Equal(fixedNow))
	assert.True(t, again.Amount.Equal(dec("10")))

	_, err = f.svc.Cancel(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	assert.Equal(t, float64(1), gathered(t, f.reg, "payment_transitions_total", "status", "pago"))
}

func TestCancelIsTerminal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.payment(t, enums.PaymentTypeSupplier, "7")

	cancelled, err := f.svc.Cancel(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.PaidAt)
	assert.True(t, cancelled.Amount.Equal(dec("7")))

	_, err = f.svc.Cancel(ctx, p.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, p.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	_, err = f.svc.Cancel(ctx, p.ID+100)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesInAnyStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	pending := f.payment(t, enums.PaymentTypeConsumer, "1")
	paid := f.payment(t, enums.PaymentTypeConsumer, "2")
	_, err := f.svc.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, pending.ID))
	require.NoError(t, f.svc.Delete(ctx, paid.ID))
	assert.Zero(t, dbtest.Count(t, f.conn, "payments"))

	err = f.svc.Delete(ctx, paid.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListFiltersAreWildcardsWhenUnset(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.payment(t, enums.PaymentTypeConsumer, "1")
	supplier := f.payment(t, enums.PaymentTypeSupplier, "2")
	f.payment(t, enums.PaymentTypeSupplier, "3")
	_, err := f.svc.Cancel(ctx, supplier.ID)
	require.NoError(t, err)

	other := dbtest.Cycle(t, f.conn)
	_, err = f.svc.Create(ctx, CreatePaymentInput{Type: enums.PaymentTypeConsumer, Amount: decPtr("9"), CycleID: other.ID, MarketID: f.market.ID, UserID: f.user.ID})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.Total)

	supplierType := enums.PaymentTypeSupplier
	byType, err := f.svc.List(ctx, Filter{Type: &supplierType, CycleID: f.cycle.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byType.Total)

	cancelled := enums.PaymentStatusCancelled
	byStatus, err := f.svc.List(ctx, Filter{Type: &supplierType, Status: &cancelled})
	require.NoError(t, err)
	require.Len(t, byStatus.Items, 1)
	assert.Equal(t, supplier.ID, byStatus.Items[0].ID)

	byCycle, err := f.svc.List(ctx, Filter{CycleID: other.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, byCycle.Total)

	bad := enums.PaymentStatus("estornado")
	_, err = f.svc.List(ctx, Filter{Status: &bad})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		ids = append(ids, f.payment(t, enums.PaymentTypeConsumer, "1").ID)
	}

	page, err := f.svc.List(ctx, Filter{Params: pagination.Params{Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.NotEmpty(t, page.NextCursor)

	page, err = f.svc.List(ctx, Filter{Params: pagination.Params{Limit: 2, Cursor: page.NextCursor}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Empty(t, page.NextCursor)
}

type settlementScenario struct {
	fixture
	basketMarket models.Market
	directMarket models.Market
	supplierA    models.User
	supplierB    models.User
	consumerX    models.User
	consumerY    models.User
}

func newSettlementScenario(t *testing.T, withDirectSale bool) settlementScenario {
	t.Helper()
	f := setup(t)
	s := settlementScenario{
		fixture:      f,
		basketMarket: f.market,
		directMarket: dbtest.Market(t, f.conn),
		supplierA:    dbtest.User(t, f.conn, enums.UserRoleSupplier),
		supplierB:    dbtest.User(t, f.conn, enums.UserRoleSupplier),
		consumerX:    dbtest.User(t, f.conn, enums.UserRoleConsumer),
		consumerY:    dbtest.User(t, f.conn, enums.UserRoleConsumer),
	}
	dbtest.MarketCycle(t, f.conn, f.cycle, s.basketMarket, enums.SaleTypeBasket, 1)
	if withDirectSale {
		dbtest.MarketCycle(t, f.conn, f.cycle, s.directMarket, enums.SaleTypeDirectSale, 2)
	}

	carrot := dbtest.Product(t, f.conn)
	beet := dbtest.Product(t, f.conn)
	dbtest.Offer(t, f.conn, f.cycle, s.basketMarket, s.supplierA,
		dbtest.OfferLine{Product: carrot, Quantity: "10", UnitPrice: "2.5"},
		dbtest.OfferLine{Product: beet, Quantity: "4", UnitPrice: "1"},
	)
	dbtest.Offer(t, f.conn, f.cycle, s.directMarket, s.supplierA,
		dbtest.OfferLine{Product: beet, Quantity: "3", UnitPrice: "2"},
	)
	dbtest.Offer(t, f.conn, f.cycle, s.basketMarket, s.supplierB,
		dbtest.OfferLine{Product: carrot, Quantity: "2", UnitPrice: "5"},
	)
	// Nothing offered, so no payment for this supplier.
	dbtest.Offer(t, f.conn, f.cycle, s.basketMarket, dbtest.User(t, f.conn, enums.UserRoleSupplier),
		dbtest.OfferLine{Product: carrot, Quantity: "0", UnitPrice: "3"},
	)

	s.order(t, s.consumerX, &s.basketMarket.ID, enums.OrderStatusConfirmed, line(carrot, "2", "3", ""))
	s.order(t, s.consumerX, nil, enums.OrderStatusPending, line(beet, "2", "2", ""), line(carrot, "1", "9", "0"))
	s.order(t, s.consumerY, &s.basketMarket.ID, enums.OrderStatusCancelled, line(carrot, "40", "2.5", ""))
	s.order(t, s.consumerY, &s.basketMarket.ID, enums.OrderStatusActive, line(beet, "2", "3", "2.5"))
	return s
}

func line(product models.Product, qty, offered, purchase string) models.OrderLine {
	l := models.OrderLine{ProductID: product.ID, Quantity: dec(qty), OfferedPrice: dec(offered)}
	if purchase != "" {
		l.PurchasePrice = decPtr(purchase)
	}
	return l
}

func (s settlementScenario) order(t *testing.T, consumer models.User, market *int64, status enums.OrderStatus, lines ...models.OrderLine) {
	t.Helper()
	o := models.ConsumerOrder{CycleID: s.cycle.ID, UserID: consumer.ID, MarketID: market, Status: status, Lines: lines}
	require.NoError(t, s.conn.Create(&o).Error)
}

func findGenerated(t *testing.T, rows []models.Payment, paymentType enums.PaymentType, userID, marketID int64) models.Payment {
	t.Helper()
	for _, p := range rows {
		if p.Type == paymentType && p.UserID == userID && p.MarketID == marketID {
			return p
		}
	}
	t.Fatalf("no %s payment for user %d in market %d", paymentType, userID, marketID)
	return models.Payment{}
}

func TestGenerateForCycle(t *testing.T) {
	s := newSettlementScenario(t, true)
	ctx := context.Background()

	gen, err := s.svc.GenerateForCycle(ctx, s.cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gen.Suppliers)
	assert.Equal(t, 3, gen.Consumers)
	require.Len(t, gen.Payments, 6)
	assert.EqualValues(t, 6, dbtest.Count(t, s.conn, "payments"))

	expect := []struct {
		paymentType enums.PaymentType
		user        int64
		market      int64
		amount      string
	}{
		{enums.PaymentTypeSupplier, s.supplierA.ID, s.basketMarket.ID, "29"},
		{enums.PaymentTypeSupplier, s.supplierA.ID, s.directMarket.ID, "6"},
		{enums.PaymentTypeSupplier, s.supplierB.ID, s.basketMarket.ID, "10"},
		{enums.PaymentTypeConsumer, s.consumerX.ID, s.basketMarket.ID, "6"},
		{enums.PaymentTypeConsumer, s.consumerX.ID, s.directMarket.ID, "4"},
		{enums.PaymentTypeConsumer, s.consumerY.ID, s.basketMarket.ID, "5"},
	}
	for _, e := range expect {
		p := findGenerated(t, gen.Payments, e.paymentType, e.user, e.market)
		assert.True(t, p.Amount.Equal(dec(e.amount)), "%s user %d market %d: got %s", e.paymentType, e.user, e.market, p.Amount)
		assert.Equal(t, enums.PaymentStatusPending, p.Status)
		assert.NotZero(t, p.ID)
	}

	totals, err := s.svc.TotalsForCycle(ctx, s.cycle.ID)
	require.NoError(t, err)
	assert.True(t, totals.TotalReceber.Equal(dec("15")), "got %s", totals.TotalReceber)
	assert.True(t, totals.TotalPagar.Equal(dec("45")), "got %s", totals.TotalPagar)
	assert.True(t, totals.Saldo.Equal(dec("-30")), "got %s", totals.Saldo)

	assert.Equal(t, float64(3), gathered(t, s.reg, "payments_generated_total", "type", "fornecedor"))
	assert.Equal(t, float64(3), gathered(t, s.reg, "payments_generated_total", "type", "consumidor"))
}

func TestGenerateForCycleRefusesSecondRun(t *testing.T) {
	s := newSettlementScenario(t, true)
	ctx := context.Background()
	_, err := s.svc.GenerateForCycle(ctx, s.cycle.ID)
	require.NoError(t, err)

	_, err = s.svc.GenerateForCycle(ctx, s.cycle.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
	assert.EqualValues(t, 6, dbtest.Count(t, s.conn, "payments"))
}

func TestGenerateForCycleNeedsMarketForUnboundOrders(t *testing.T) {
	s := newSettlementScenario(t, false)

	_, err := s.svc.GenerateForCycle(context.Background(), s.cycle.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Zero(t, dbtest.Count(t, s.conn, "payments"))
}

func TestGenerateForCycleRequiresExistingCycle(t *testing.T) {
	f := setup(t)
	_, err := f.svc.GenerateForCycle(context.Background(), 0)
	assert.Equal(t, "cycleId is required", pkgerrors.As(err).Message())

	_, err = f.svc.GenerateForCycle(context.Background(), f.cycle.ID+500)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestGenerateForEmptyCycleCreatesNothing(t *testing.T) {
	f := setup(t)
	gen, err := f.svc.GenerateForCycle(context.Background(), f.cycle.ID)
	require.NoError(t, err)
	assert.Empty(t, gen.Payments)
	assert.Zero(t, gen.Suppliers+gen.Consumers)
}

func TestTotalsForCycleExcludeCancelled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.payment(t, enums.PaymentTypeConsumer, "100")
	cancelled := f.payment(t, enums.PaymentTypeConsumer, "40")
	f.payment(t, enums.PaymentTypeSupplier, "30.50")
	_, err := f.svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	totals, err := f.svc.TotalsForCycle(ctx, f.cycle.ID)
	require.NoError(t, err)
	assert.True(t, totals.TotalReceber.Equal(dec("100")))
	assert.True(t, totals.TotalPagar.Equal(dec("30.5")))
	assert.True(t, totals.Saldo.Equal(dec("69.5")))
	assert.True(t, totals.Saldo.Equal(totals.TotalReceber.Sub(totals.TotalPagar)))
}

func TestTotalsForCycleBalance(t *testing.T) {
	cases := []struct {
		name      string
		suppliers []string
		consumers []string
		receber   string
		pagar     string
		saldo     string
	}{
		{"consumers exceed suppliers", []string{"120.00"}, []string{"150.00", "20.00"}, "170.00", "120.00", "50.00"},
		{"suppliers exceed consumers", []string{"500.00"}, []string{"250.00"}, "250.00", "500.00", "-250.00"},
		{"balanced", []string{"80.00"}, []string{"80.00"}, "80.00", "80.00", "0"},
		{"no payments", nil, nil, "0", "0", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t)
			for _, amount := range tc.suppliers {
				f.payment(t, enums.PaymentTypeSupplier, amount)
			}
			for _, amount := range tc.consumers {
				f.payment(t, enums.PaymentTypeConsumer, amount)
			}

			totals, err := f.svc.TotalsForCycle(context.Background(), f.cycle.ID)
			require.NoError(t, err)
			assert.True(t, totals.TotalReceber.Equal(dec(tc.receber)), totals.TotalReceber.String())
			assert.True(t, totals.TotalPagar.Equal(dec(tc.pagar)), totals.TotalPagar.String())
			assert.True(t, totals.Saldo.Equal(dec(tc.saldo)), totals.Saldo.String())
		})
	}
}

func TestTotalsForCycleRequiresExistingCycle(t *testing.T) {
	f := setup(t)
	_, err := f.svc.TotalsForCycle(context.Background(), 0)
	assert.Equal(t, "cycleId is required", pkgerrors.As(err).Message())

	_, err = f.svc.TotalsForCycle(context.Background(), f.cycle.ID+1000)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestConsumerTotals(t *testing.T) {
	market := int64(7)
	fallback := int64(9)
	list := []models.ConsumerOrder{
		{ID: 1, UserID: 1, MarketID: &market, Lines: []models.OrderLine{{Quantity: dec("1"), OfferedPrice: dec("2")}}},
		{ID: 2, UserID: 1, MarketID: &market, Lines: []models.OrderLine{{Quantity: dec("3"), OfferedPrice: dec("1")}}},
		{ID: 3, UserID: 2, Lines: []models.OrderLine{{Quantity: dec("1"), OfferedPrice: dec("4")}}},
		{ID: 4, UserID: 2, Lines: nil},
	}

	totals, unattributed := ConsumerTotals(list, &fallback)
	assert.Empty(t, unattributed)
	require.Len(t, totals, 2)
	assert.Equal(t, int64(1), totals[0].UserID)
	assert.Equal(t, int64(7), totals[0].MarketID)
	assert.True(t, totals[0].Amount.Equal(dec("5")))
	assert.Equal(t, int64(9), totals[1].MarketID)

	_, unattributed = ConsumerTotals(list, nil)
	assert.Equal(t, []int64{3}, unattributed)
}

func TestDirectSaleMarketFollowsServingOrder(t *testing.T) {
	assocs := []models.MarketCycle{
		{MarketID: 1, SaleType: enums.SaleTypeBasket},
		{MarketID: 2, SaleType: enums.SaleTypeDirectSale},
		{MarketID: 3, SaleType: enums.SaleTypeDirectSale},
	}
	got := DirectSaleMarket(assocs)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), *got)
	assert.Nil(t, DirectSaleMarket(assocs[:1]))
}

func gathered(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m.GetLabel(), label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s{%s=%q} not gathered", name, label, value)
	return 0
}

func hasLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, l := range labels {
		if l.GetName() == name && l.GetValue() == value {
			return true
		}
	}
	return false
}
