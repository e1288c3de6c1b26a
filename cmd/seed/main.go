package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/redeciclos/ciclos-backend/pkg/config"
	"github.com/redeciclos/ciclos-backend/pkg/db"
	"github.com/redeciclos/ciclos-backend/pkg/fixtures"
	"github.com/redeciclos/ciclos-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	file := flag.String("file", "seeds/dev.yaml", "fixtures file to load")
	check := flag.Bool("check", false, "validate the file without touching the database")
	flag.Parse()

	ctx := logg.WithField(context.Background(), "file", *file)

	doc, err := fixtures.Load(*file)
	if err != nil {
		logg.Error(ctx, "failed to read fixtures", err)
		os.Exit(1)
	}
	if err := doc.Validate(); err != nil {
		for _, problem := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "fixtures:", problem)
		}
		os.Exit(1)
	}
	if *check {
		fmt.Println("fixtures validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "file": *file})

	if cfg.App.IsProd() {
		logg.Warn(ctx, "refusing to seed a production database")
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	summary, err := fixtures.Apply(ctx, dbClient, doc)
	if err != nil {
		logg.Error(ctx, "failed to apply fixtures", err)
		os.Exit(1)
	}

	tables := make([]string, 0, len(summary))
	for table := range summary {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Printf("%-16s %d\n", table, summary[table])
	}
	logg.Info(ctx, "fixtures applied")
}
