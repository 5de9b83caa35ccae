// templatectl consolidates template seed files (CSV or JSON) and imports
// them into the gravyd store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gravyprompts/gravyd/internal/config"
	dbRedis "github.com/gravyprompts/gravyd/internal/db/redis"
	"github.com/gravyprompts/gravyd/internal/loader"
	logpkg "github.com/gravyprompts/gravyd/internal/logger"
	templaterepo "github.com/gravyprompts/gravyd/internal/repository/template"
)

func main() {
	authorID := flag.String("author", "", "user id that owns the imported templates (required)")
	approve := flag.Bool("approve", false, "mark public imports approved instead of pending")
	dryRun := flag.Bool("dry-run", false, "consolidate and report without writing to the store")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: templatectl -author <user-id> [-approve] [-dry-run] <seed-file>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *authorID == "" && !*dryRun {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	log, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	var records []loader.Record
	for _, path := range flag.Args() {
		recs, err := loader.ReadFile(path)
		if err != nil {
			log.Fatal("Failed to read seed file", zap.String("path", path), zap.Error(err))
		}
		log.Info("Read seed file", zap.String("path", path), zap.Int("records", len(recs)))
		records = append(records, recs...)
	}

	unique, dropped := loader.Consolidate(records)
	log.Info("Consolidated records",
		zap.Int("total", len(records)),
		zap.Int("unique", len(unique)),
		zap.Int("duplicates_dropped", dropped))

	if *dryRun {
		for _, rec := range unique {
			fmt.Printf("%s\t%s\t%v\n", rec.Category, rec.Title, rec.Tags)
		}
		return
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		log.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		log.Fatal("Database not ready", zap.Error(err))
	}

	repo := templaterepo.New(store, cfg.Storage.KeyPrefix)
	l := loader.New(repo, *authorID, *approve, log)

	imported, err := l.Import(logpkg.ContextWithLogger(ctx, log), unique)
	if err != nil {
		log.Fatal("Import failed", zap.Int("imported", imported), zap.Error(err))
	}
	log.Info("Import complete", zap.Int("imported", imported))
}
