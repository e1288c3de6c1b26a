package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"nil", nil, "", false},
		{"pgx match", &pgconn.PgError{Code: "23505", ConstraintName: "uq_market_cycles_cycle_market"}, "uq_market_cycles_cycle_market", true},
		{"pgx other constraint", &pgconn.PgError{Code: "23505", ConstraintName: "other"}, "uq_market_cycles_cycle_market", false},
		{"pgx wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "", true},
		{"pgx fk", &pgconn.PgError{Code: "23503"}, "", false},
		{"pq match", &pq.Error{Code: "23505", Constraint: "uq_cycle_baskets_cycle_basket"}, "uq_cycle_baskets_cycle_basket", true},
		{"sqlite typed", fmt.Errorf("create: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), "uq_market_cycles_cycle_market", true},
		{"sqlite typed fk", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, "", false},
		{"sqlite", errors.New("UNIQUE constraint failed: market_cycles.cycle_id, market_cycles.market_id"), "uq_market_cycles_cycle_market", true},
		{"plain text", errors.New(`duplicate key value violates unique constraint "uq_compositions_cycle_basket"`), "uq_compositions_cycle_basket", true},
		{"unrelated", errors.New("connection refused"), "", false},
	}

	for _, tt := range tests {
		if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected pgx fk violation")
	}
	if !IsForeignKeyViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("expected pq fk violation")
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")) {
		t.Fatal("expected sqlite fk violation")
	}
	if !IsForeignKeyViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}) {
		t.Fatal("expected typed sqlite fk violation")
	}
	if IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation is not a fk violation")
	}
}
