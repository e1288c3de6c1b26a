package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		detailsOK bool
		retryable bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeDuplication, status: http.StatusConflict, publicMsg: "record already exists", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v", tt.code, tt.retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing name")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing name" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load cycle")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestRequiredNamesField(t *testing.T) {
	err := Required("cycleId")
	if err.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", err.Code())
	}
	if err.Message() != "cycleId is required" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	details, ok := err.Details().(map[string]any)
	if !ok || details["field"] != "cycleId" {
		t.Fatalf("expected field detail, got %#v", err.Details())
	}
}

func TestAsAndIsFollowWrappedChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeDuplication, "market already bound"))
	typed := As(err)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeDuplication {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !Is(err, CodeDuplication) {
		t.Fatal("expected Is to match duplication")
	}
	if Is(err, CodeConflict) {
		t.Fatal("did not expect conflict match")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors must not convert")
	}
}

func TestIsSeesCodesBelowOuterError(t *testing.T) {
	inner := New(CodeNotFound, "cycle not found")
	outer := Wrap(CodeConflict, fmt.Errorf("advance: %w", inner), "cannot advance")
	if !Is(outer, CodeConflict) || !Is(outer, CodeNotFound) {
		t.Fatal("expected both codes in chain")
	}
	if Is(outer, CodeValidation) {
		t.Fatal("validation is not in chain")
	}
	if got := outer.Error(); got != "CONFLICT: cannot advance: advance: NOT_FOUND: cycle not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(New(CodeIdempotency, "reused")); got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}
	if got := HTTPStatus(stdErrors.New("plain")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection reset"), "insert payment")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %d", len(dump.Chain))
	}
}

func TestDumpExtractsDriverErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_market_cycles_cycle_market", TableName: "market_cycles"}
	dump := Dump(Wrap(CodeInternal, pgErr, "associate market"))
	if dump.DB == nil || dump.DB.Driver != "pgx" || dump.DB.Constraint != "uq_market_cycles_cycle_market" {
		t.Fatalf("unexpected db dump %+v", dump.DB)
	}

	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	dump = Dump(Wrap(CodeInternal, liteErr, "bind basket"))
	if dump.DB == nil || dump.DB.Driver != "sqlite3" || dump.DB.Code != "2067" {
		t.Fatalf("unexpected sqlite dump %+v", dump.DB)
	}
	if _, ok := dump.LogFields()["db_error"]; !ok {
		t.Fatal("expected db_error log field")
	}

	if Dump(stdErrors.New("plain")).DB != nil {
		t.Fatal("plain errors carry no driver detail")
	}
}
