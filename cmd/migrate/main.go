package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
	"github.com/redeciclos/ciclos-backend/pkg/migrate"
)

type flags struct {
	dir     string
	name    string
	version string
}

// offline commands never open a database connection.
var offline = map[string]func(f flags) (string, error){
	"create": func(f flags) (string, error) {
		if f.name == "" {
			return "", fmt.Errorf("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(f.dir, f.name)
		return "created " + path, err
	},
	"validate": func(f flags) (string, error) {
		return "migrations valid", migrate.ValidateDir(f.dir)
	},
}

var online = map[string]func(ctx context.Context, r *migrate.Runner, f flags) error{
	"up":     func(ctx context.Context, r *migrate.Runner, _ flags) error { return r.Up(ctx) },
	"down":   func(ctx context.Context, r *migrate.Runner, _ flags) error { return r.Down(ctx) },
	"status": func(ctx context.Context, r *migrate.Runner, _ flags) error { return r.Status(ctx) },
	"version": func(ctx context.Context, r *migrate.Runner, f flags) error {
		return r.MigrateTo(ctx, f.version)
	},
}

func main() {
	_ = godotenv.Load()

	var f flags
	cmd := flag.String("cmd", "up", "one of: "+commandList())
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&f.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&f.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	if run, ok := offline[*cmd]; ok {
		msg, err := run(f)
		exitOn(err)
		fmt.Println(msg)
		return
	}
	run, ok := online[*cmd]
	if !ok {
		exitOn(fmt.Errorf("unknown -cmd %q (want %s)", *cmd, commandList()))
	}

	cfg, err := config.Load()
	exitOn(err)
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "dir": f.dir})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "migrate.db_unavailable", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	// goose files target Postgres; SQLite only supports applying the embedded schema.
	if cfg.DB.IsSQLite() {
		if *cmd != "up" {
			exitOn(fmt.Errorf("-cmd=%s is not supported for sqlite", *cmd))
		}
		exitOn(dbClient.EnsureSQLiteSchema(ctx))
		logg.Info(ctx, "migrate.sqlite_schema_applied")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn(err)
	runner, err := migrate.NewRunner(sqlDB, f.dir, logg)
	exitOn(err)
	if err := run(ctx, runner, f); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func commandList() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
