// Package dbtest opens throwaway SQLite databases with the full schema and
// offers small factories for reference rows.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/db/models"
	"github.com/redeciclos/ciclos-backend/pkg/enums"
)

var seq atomic.Int64

// Open returns an in-memory database with every table created and foreign keys on.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := db.ApplySQLiteSchema(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client so services get a real transaction runner.
func Client(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewFromGorm(conn), conn
}

func next() int64 { return seq.Add(1) }

func mustCreate(t *testing.T, conn *gorm.DB, v any) {
	t.Helper()
	if err := conn.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func DeliveryPoint(t *testing.T, conn *gorm.DB) models.DeliveryPoint {
	t.Helper()
	dp := models.DeliveryPoint{Name: fmt.Sprintf("ponto-%d", next()), Address: "Rua A, 1"}
	mustCreate(t, conn, &dp)
	return dp
}

func Market(t *testing.T, conn *gorm.DB) models.Market {
	t.Helper()
	m := models.Market{Name: fmt.Sprintf("mercado-%d", next())}
	mustCreate(t, conn, &m)
	return m
}

func Product(t *testing.T, conn *gorm.DB) models.Product {
	t.Helper()
	p := models.Product{Name: fmt.Sprintf("produto-%d", next()), Unit: "kg"}
	mustCreate(t, conn, &p)
	return p
}

func BasketType(t *testing.T, conn *gorm.DB) models.BasketType {
	t.Helper()
	bt := models.BasketType{Name: fmt.Sprintf("cesta-%d", next()), MaxPrice: decimal.NewFromInt(80), Status: enums.BasketStatusActive}
	mustCreate(t, conn, &bt)
	return bt
}

func User(t *testing.T, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	n := next()
	u := models.User{Name: fmt.Sprintf("user-%d", n), Email: fmt.Sprintf("user-%d@example.com", n), Role: role}
	mustCreate(t, conn, &u)
	return u
}

// Cycle inserts an active cycle in the offer phase with a one week offer window.
func Cycle(t *testing.T, conn *gorm.DB) models.Cycle {
	t.Helper()
	dp := DeliveryPoint(t, conn)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c := models.Cycle{
		Name:            fmt.Sprintf("ciclo-%d", next()),
		OfferStartsAt:   start,
		OfferEndsAt:     start.Add(7 * 24 * time.Hour),
		DeliveryPointID: dp.ID,
		Status:          enums.CycleStatusOffer,
		Active:          true,
	}
	mustCreate(t, conn, &c)
	return c
}

// MarketCycle binds market to cycle with the given sale type.
func MarketCycle(t *testing.T, conn *gorm.DB, cycle models.Cycle, market models.Market, saleType enums.SaleType, servingOrder int) models.MarketCycle {
	t.Helper()
	mc := models.MarketCycle{
		CycleID:         cycle.ID,
		MarketID:        market.ID,
		SaleType:        saleType,
		ServingOrder:    servingOrder,
		DeliveryPointID: cycle.DeliveryPointID,
	}
	if saleType == enums.SaleTypeBasket {
		n := 10
		mc.BasketsCount = &n
	}
	mustCreate(t, conn, &mc)
	return mc
}

// OfferLine is the input for Offer.
type OfferLine struct {
	Product   models.Product
	Quantity  string
	UnitPrice string
}

// Offer records a supplier offer with its lines.
func Offer(t *testing.T, conn *gorm.DB, cycle models.Cycle, market models.Market, supplier models.User, lines ...OfferLine) models.SupplierOffer {
	t.Helper()
	offer := models.SupplierOffer{CycleID: cycle.ID, MarketID: market.ID, SupplierID: supplier.ID}
	for _, l := range lines {
		offer.Lines = append(offer.Lines, models.OfferLine{
			ProductID: l.Product.ID,
			Quantity:  decimal.RequireFromString(l.Quantity),
			UnitPrice: decimal.RequireFromString(l.UnitPrice),
		})
	}
	mustCreate(t, conn, &offer)
	return offer
}

// Count returns the number of rows in table.
func Count(t *testing.T, conn *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := conn.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
