package migrate

import (
	"context"
	"fmt"

	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on API boot, only in dev with
// CICLOS_AUTO_MIGRATE set. SQLite gets the embedded schema; Postgres runs the
// goose files in DefaultDir.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver, "dir": DefaultDir})

	if cfg.DB.IsSQLite() {
		if err := client.EnsureSQLiteSchema(ctx); err != nil {
			return fmt.Errorf("ensure sqlite schema: %w", err)
		}
		logg.Info(ctx, "migrate.autorun.sqlite_schema_ready")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir, logg)
	if err != nil {
		return err
	}
	if err := runner.Up(ctx); err != nil {
		return err
	}
	version, err := runner.Version(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "migrate.autorun.done")
	return nil
}
