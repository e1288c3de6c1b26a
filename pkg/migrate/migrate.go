package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

// DefaultDir is relative to the repository root.
const DefaultDir = "pkg/migrate/migrations"

const versionLayoutLen = len("20060102150405")

// Runner applies the goose files in one directory to a Postgres database.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

func NewRunner(db *sql.DB, dir string, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	if dir == "" {
		return nil, errors.New("migrate: dir is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("migrate: open %s: %w", dir, err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.report(ctx, results)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration. Nothing applied is not an error.
func (r *Runner) Down(ctx context.Context) error {
	result, err := r.provider.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	if result != nil {
		r.report(ctx, []*goose.MigrationResult{result})
	}
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrateTo moves the schema up or down until target is the current version.
func (r *Runner) MigrateTo(ctx context.Context, target string) error {
	version, err := ParseVersion(target)
	if err != nil {
		return err
	}
	current, err := r.Version(ctx)
	if err != nil {
		return err
	}

	var results []*goose.MigrationResult
	switch {
	case current == version:
		return nil
	case current < version:
		results, err = r.provider.UpTo(ctx, version)
	default:
		results, err = r.provider.DownTo(ctx, version)
	}
	r.report(ctx, results)
	if err != nil {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	return nil
}

func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Status logs one line per known migration and whether it is applied.
func (r *Runner) Status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	for _, s := range statuses {
		fields := map[string]any{"version": s.Source.Version, "state": string(s.State)}
		if !s.AppliedAt.IsZero() {
			fields["applied_at"] = s.AppliedAt
		}
		r.info(r.fields(ctx, fields), "migrate.status")
	}
	return nil
}

func (r *Runner) report(ctx context.Context, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		r.info(r.fields(ctx, map[string]any{
			"version":     res.Source.Version,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migrate.applied")
	}
}

func (r *Runner) fields(ctx context.Context, fields map[string]any) context.Context {
	if r.logg == nil {
		return ctx
	}
	return r.logg.WithFields(ctx, fields)
}

func (r *Runner) info(ctx context.Context, msg string) {
	if r.logg != nil {
		r.logg.Info(ctx, msg)
	}
}

// ParseVersion accepts a YYYYMMDDHHMMSS migration version.
func ParseVersion(v string) (int64, error) {
	if v == "" {
		return 0, errors.New("migrate: version is required")
	}
	target, err := strconv.ParseInt(v, 10, 64)
	if err != nil || len(v) != versionLayoutLen {
		return 0, fmt.Errorf("migrate: invalid version %q (expected YYYYMMDDHHMMSS)", v)
	}
	return target, nil
}
