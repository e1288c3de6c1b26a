package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("migration %s not found", suffix)
	return ""
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestMarketCyclesMigrationDeclaresUniquePair(t *testing.T) {
	sql := readMigration(t, "_create_market_cycles.sql")
	assert.Contains(t, sql, "CONSTRAINT uq_market_cycles_cycle_market UNIQUE (cycle_id, market_id)")
	assert.Contains(t, sql, "'cesta', 'lote', 'venda_direta'")
}

func TestCompositionsMigrationDeclaresUniqueness(t *testing.T) {
	sql := readMigration(t, "_create_compositions.sql")
	assert.Contains(t, sql, "UNIQUE (cycle_id, basket_type_id)")
	assert.Contains(t, sql, "UNIQUE (cycle_basket_id)")
	assert.Contains(t, sql, "UNIQUE (composition_id, product_id)")
}

func TestPaymentsMigrationConstrainsStatus(t *testing.T) {
	sql := readMigration(t, "_create_payments.sql")
	assert.Contains(t, sql, "CHECK (status IN ('pendente', 'pago', 'cancelado'))")
	assert.Contains(t, sql, "CHECK (amount >= 0)")
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_b.sql"), body, 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version")
}

func TestValidateDirRejectsUnbalancedBlocks(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_a.sql"), body, 0o644))
	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unbalanced")
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Pickup Window!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_pickup_window.sql"))
	require.NoError(t, ValidateDir(dir))
}

func TestCreateSQLMigrationRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 1, 12, 6, 0, 0, time.UTC)
	path, err := createAt(dir, "add pickup notes", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250301120600_add_pickup_notes.sql"), path)

	_, err = createAt(dir, "add pickup notes", now)
	require.Error(t, err)

	_, err = createAt(dir, "!!!", now)
	require.Error(t, err)
}

func TestValidateDirReportsAllProblems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_flipped.sql"), []byte("-- +goose Down\n-- +goose Up\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000100_orphan_end.sql"), []byte("-- +goose Up\n-- +goose StatementEnd\n-- +goose Down\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "Down before Up")
	assert.Contains(t, err.Error(), "StatementEnd without StatementBegin")
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "add_pickup_window", Slug("  Add Pickup-Window! "))
	assert.Equal(t, "", Slug("--"))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20250301120000")
	require.NoError(t, err)
	assert.Equal(t, int64(20250301120000), v)

	_, err = ParseVersion("")
	require.Error(t, err)
	_, err = ParseVersion("2025")
	require.Error(t, err)
	_, err = ParseVersion("2025030112000x")
	require.Error(t, err)
}

func TestNewRunnerRequiresDBAndDir(t *testing.T) {
	_, err := NewRunner(nil, DefaultDir, nil)
	require.ErrorContains(t, err, "db is required")
}
