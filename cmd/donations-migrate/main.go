package main

import (
	"context"
	"fmt"
	"os"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/common/logger"
	"github.com/umar1110/Donation-Plantform-Server/internal/cli"
	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	"github.com/umar1110/Donation-Plantform-Server/internal/migration"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
	"github.com/umar1110/Donation-Plantform-Server/internal/service"
	"github.com/umar1110/Donation-Plantform-Server/internal/store"
)

func main() {
	root := cli.NewRootCmd(buildDeps)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildDeps(ctx context.Context) (*cli.Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "donations-migrate")
	if err != nil {
		return nil, nil, err
	}

	shared, err := migration.NewCatalogFromDir(cfg.Migrations.SharedDir)
	if err != nil {
		return nil, nil, err
	}
	tenant, err := migration.NewCatalogFromDir(cfg.Migrations.TenantDir)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	orgsRepo := repository.NewPostgresOrgsRepository()
	runner := migration.NewRunner(db, shared, tenant, migration.NewLedger(log), orgsRepo, log)
	deps := &cli.Deps{
		Runner:      runner,
		Orgs:        service.NewOrgResolver(db, orgsRepo, store.NopKV{}, 0, log),
		Provisioner: service.NewOrgService(db, orgsRepo, runner, cfg.Donations.FallbackReceiptPrefix, log),
		Receipts:    service.NewReceiptService(db, repository.NewPostgresReceiptsRepository(), repository.NewPostgresDonationsRepository(), nil, log),
	}
	cleanup := func() {
		_ = database.Close(db)
		_ = log.Sync()
	}
	return deps, cleanup, nil
}
