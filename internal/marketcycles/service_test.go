package marketcycles

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/internal/catalog"
	"github.com/redeciclos/ciclos-backend/pkg/db/dbtest"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
	pkgerrors "github.com/redeciclos/ciclos-backend/pkg/errors"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

type fixture struct {
	svc    Service
	conn   *gorm.DB
	cycle  models.Cycle
	market models.Market
}

func setup(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	svc, err := NewService(ServiceParams{
		Logger:  logger.New(logger.Options{Output: io.Discard}),
		DB:      client,
		Repo:    NewRepository(conn),
		Catalog: catalog.NewRepository(conn),
	})
	require.NoError(t, err)
	return fixture{
		svc:    svc,
		conn:   conn,
		cycle:  dbtest.Cycle(t, conn),
		market: dbtest.Market(t, conn),
	}
}

func intPtr(v int) *int { return &v }

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func (f fixture) directSale(market models.Market, servingOrder int) AssociateInput {
	return AssociateInput{
		CycleID:         f.cycle.ID,
		MarketID:        market.ID,
		SaleType:        enums.SaleTypeDirectSale,
		ServingOrder:    servingOrder,
		DeliveryPointID: f.cycle.DeliveryPointID,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), typed.Message())
	return typed
}

func TestAssociateTwiceRaisesDuplication(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Associate(ctx, f.directSale(f.market, 1))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	_, err = f.svc.Associate(ctx, f.directSale(f.market, 2))
	typed := requireCode(t, err, pkgerrors.CodeDuplication)
	assert.Equal(t, map[string]any{"cycleId": f.cycle.ID, "marketId": f.market.ID}, typed.Details())

	rows, err := f.svc.ListByCycle(ctx, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, f.market.ID, rows[0].MarketID)
}

func TestAssociateRequiresSaleTypeFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	basket := f.directSale(f.market, 1)
	basket.SaleType = enums.SaleTypeBasket
	_, err := f.svc.Associate(ctx, basket)
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "basketsCount is required", typed.Message())

	basket.BasketsCount = intPtr(10)
	_, err = f.svc.Associate(ctx, basket)
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "targetPricePerBasket is required", typed.Message())

	lot := f.directSale(f.market, 1)
	lot.SaleType = enums.SaleTypeLot
	_, err = f.svc.Associate(ctx, lot)
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "targetPricePerLot is required", typed.Message())

	assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "market_cycles"))

	_, err = f.svc.Associate(ctx, f.directSale(f.market, 1))
	require.NoError(t, err)
}

func TestAssociateBasketWithFields(t *testing.T) {
	f := setup(t)
	input := f.directSale(f.market, 1)
	input.SaleType = enums.SaleTypeBasket
	input.BasketsCount = intPtr(12)
	input.TargetPricePerBasket = decPtr("65.50")

	mc, err := f.svc.Associate(context.Background(), input)
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), mc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BasketsCount)
	assert.Equal(t, 12, *got.BasketsCount)
	require.NotNil(t, got.TargetPricePerBasket)
	assert.True(t, got.TargetPricePerBasket.Equal(decimal.RequireFromString("65.5")))
}

func TestAssociateRangeChecks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	input := f.directSale(f.market, 1)
	input.SaleType = enums.SaleTypeBasket
	input.BasketsCount = intPtr(0)
	input.TargetPricePerBasket = decPtr("10")
	_, err := f.svc.Associate(ctx, input)
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "basketsCount must be greater than zero", typed.Message())

	lot := f.directSale(f.market, 1)
	lot.SaleType = enums.SaleTypeLot
	lot.TargetPricePerLot = decPtr("-1")
	_, err = f.svc.Associate(ctx, lot)
	requireCode(t, err, pkgerrors.CodeValidation)

	unknown := f.directSale(f.market, 1)
	unknown.SaleType = enums.SaleType("atacado")
	_, err = f.svc.Associate(ctx, unknown)
	requireCode(t, err, pkgerrors.CodeValidation)

	missing := f.directSale(f.market, 1)
	missing.SaleType = ""
	_, err = f.svc.Associate(ctx, missing)
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "saleType is required", typed.Message())
}

func TestAssociateChecksReferencesFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	input := f.directSale(f.market, 1)
	input.SaleType = enums.SaleTypeBasket
	input.CycleID = 9999
	_, err := f.svc.Associate(ctx, input)
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, typed.Message(), "cycleId")

	input = f.directSale(f.market, 1)
	input.MarketID = 0
	_, err = f.svc.Associate(ctx, input)
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "marketId is required", typed.Message())

	input = f.directSale(f.market, 1)
	input.DeliveryPointID = 8888
	_, err = f.svc.Associate(ctx, input)
	typed = requireCode(t, err, pkgerrors.CodeValidation)
	assert.Contains(t, typed.Message(), "deliveryPointId")
}

func TestListByCycleOrdersByServingOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	m2 := f.market
	m1 := dbtest.Market(t, f.conn)
	m3 := dbtest.Market(t, f.conn)
	tie := dbtest.Market(t, f.conn)

	for _, in := range []AssociateInput{
		f.directSale(m2, 2),
		f.directSale(m1, 1),
		f.directSale(m3, 3),
		f.directSale(tie, 2),
	} {
		_, err := f.svc.Associate(ctx, in)
		require.NoError(t, err)
	}

	rows, err := f.svc.ListByCycle(ctx, f.cycle.ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []int64{m1.ID, m2.ID, tie.ID, m3.ID}, []int64{rows[0].MarketID, rows[1].MarketID, rows[2].MarketID, rows[3].MarketID})

	empty, err := f.svc.ListByCycle(ctx, f.cycle.ID+1000)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdateRevalidatesMergedRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mc, err := f.svc.Associate(ctx, f.directSale(f.market, 1))
	require.NoError(t, err)

	basket := enums.SaleTypeBasket
	_, err = f.svc.Update(ctx, mc.ID, UpdateInput{SaleType: &basket, BasketsCount: intPtr(5)})
	typed := requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "targetPricePerBasket is required", typed.Message())

	updated, err := f.svc.Update(ctx, mc.ID, UpdateInput{SaleType: &basket, BasketsCount: intPtr(5), TargetPricePerBasket: decPtr("40")})
	require.NoError(t, err)
	assert.Equal(t, enums.SaleTypeBasket, updated.SaleType)

	updated, err = f.svc.Update(ctx, mc.ID, UpdateInput{ServingOrder: intPtr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.ServingOrder)
	assert.Equal(t, 5, *updated.BasketsCount)

	_, err = f.svc.Update(ctx, mc.ID, UpdateInput{BasketsCount: intPtr(-3)})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.Update(ctx, mc.ID+50, UpdateInput{ServingOrder: intPtr(1)})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestRemoveIsHardDeleteWithoutTouchingCycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mc, err := f.svc.Associate(ctx, f.directSale(f.market, 1))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, mc.ID))
	assert.Equal(t, int64(0), dbtest.Count(t, f.conn, "market_cycles"))
	assert.Equal(t, int64(1), dbtest.Count(t, f.conn, "cycles"))

	err = f.svc.Remove(ctx, mc.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.Associate(ctx, f.directSale(f.market, 1))
	require.NoError(t, err, "pair is free again after removal")
}
