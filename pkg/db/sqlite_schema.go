package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors pkg/migrate/migrations for local SQLite databases.
// Keep both in sync when adding columns.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS delivery_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS basket_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		max_price NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'ativo',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		offer_starts_at DATETIME NOT NULL,
		offer_ends_at DATETIME NOT NULL,
		extra_starts_at DATETIME,
		extra_ends_at DATETIME,
		pickup_starts_at DATETIME,
		pickup_ends_at DATETIME,
		delivery_point_id INTEGER NOT NULL REFERENCES delivery_points(id),
		status TEXT NOT NULL DEFAULT 'oferta',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS market_cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES cycles(id),
		market_id INTEGER NOT NULL REFERENCES markets(id),
		sale_type TEXT NOT NULL,
		serving_order INTEGER NOT NULL DEFAULT 0,
		delivery_point_id INTEGER NOT NULL REFERENCES delivery_points(id),
		baskets_count INTEGER,
		target_price_per_basket NUMERIC,
		target_price_per_lot NUMERIC,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT uq_market_cycles_cycle_market UNIQUE (cycle_id, market_id)
	)`,
	`CREATE TABLE IF NOT EXISTS cycle_baskets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES cycles(id),
		basket_type_id INTEGER NOT NULL REFERENCES basket_types(id),
		baskets_count INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT uq_cycle_baskets_cycle_basket UNIQUE (cycle_id, basket_type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS compositions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_basket_id INTEGER NOT NULL REFERENCES cycle_baskets(id) ON DELETE CASCADE,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT uq_compositions_cycle_basket UNIQUE (cycle_basket_id)
	)`,
	`CREATE TABLE IF NOT EXISTS composition_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		composition_id INTEGER NOT NULL REFERENCES compositions(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity NUMERIC NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT uq_composition_products_product UNIQUE (composition_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS supplier_offers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES cycles(id),
		market_id INTEGER NOT NULL REFERENCES markets(id),
		supplier_id INTEGER NOT NULL REFERENCES users(id),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS offer_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		offer_id INTEGER NOT NULL REFERENCES supplier_offers(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity NUMERIC NOT NULL,
		unit_price NUMERIC NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS consumer_orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id INTEGER NOT NULL REFERENCES cycles(id),
		user_id INTEGER NOT NULL REFERENCES users(id),
		market_id INTEGER REFERENCES markets(id),
		status TEXT NOT NULL DEFAULT 'pendente',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL REFERENCES consumer_orders(id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity NUMERIC NOT NULL,
		offered_price NUMERIC NOT NULL,
		purchase_price NUMERIC,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pendente',
		cycle_id INTEGER NOT NULL REFERENCES cycles(id),
		market_id INTEGER NOT NULL REFERENCES markets(id),
		user_id INTEGER NOT NULL REFERENCES users(id),
		paid_at DATETIME,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// ApplySQLiteSchema creates every table on a SQLite connection. It is idempotent.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db connection is required")
	}
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return nil
}

// EnsureSQLiteSchema applies the SQLite schema through the client connection.
func (c *Client) EnsureSQLiteSchema(ctx context.Context) error {
	return ApplySQLiteSchema(ctx, c.conn)
}
