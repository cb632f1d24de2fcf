package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/umar1110/Donation-Plantform-Server/common/database"
	"github.com/umar1110/Donation-Plantform-Server/common/logger"
	rediscommon "github.com/umar1110/Donation-Plantform-Server/common/redis"
	"github.com/umar1110/Donation-Plantform-Server/internal/config"
	httpapi "github.com/umar1110/Donation-Plantform-Server/internal/http"
	"github.com/umar1110/Donation-Plantform-Server/internal/mail"
	"github.com/umar1110/Donation-Plantform-Server/internal/migration"
	"github.com/umar1110/Donation-Plantform-Server/internal/repository"
	"github.com/umar1110/Donation-Plantform-Server/internal/service"
	"github.com/umar1110/Donation-Plantform-Server/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "donations-api")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	shared, err := migration.NewCatalogFromDir(cfg.Migrations.SharedDir)
	if err != nil {
		log.Fatal("Failed to load shared migrations", zap.Error(err))
	}
	tenant, err := migration.NewCatalogFromDir(cfg.Migrations.TenantDir)
	if err != nil {
		log.Fatal("Failed to load tenant migrations", zap.Error(err))
	}

	orgsRepo := repository.NewPostgresOrgsRepository()
	donorsRepo := repository.NewPostgresDonorsRepository()
	donationsRepo := repository.NewPostgresDonationsRepository()
	receiptsRepo := repository.NewPostgresReceiptsRepository()

	runner := migration.NewRunner(db, shared, tenant, migration.NewLedger(log), orgsRepo, log)
	if err := runner.Init(context.Background()); err != nil {
		log.Fatal("Failed to initialize migration ledger", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := newSender(cfg, log)
	marker := mail.NewReceiptMarker(db, receiptsRepo)

	var (
		dispatcher  mail.Dispatcher
		kv          store.KV = store.NopKV{}
		redisClient *rediscommon.Client
		async       *mail.AsyncDispatcher
		workerDone  = make(chan struct{})
	)
	if cfg.Redis.Enabled {
		redisClient = rediscommon.NewRedisClient(&cfg.Redis.RedisConfig)
		if err := rediscommon.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis unreachable at startup, outbox writes will fail until it returns", zap.Error(err))
		}
		kv = store.NewRedisKV(redisClient)
		dispatcher = mail.NewOutbox(redisClient, cfg.Mail.Stream, log)

		worker := mail.NewWorker(redisClient, sender, marker, mail.WorkerConfig{
			Stream:        cfg.Mail.Stream,
			ConsumerGroup: cfg.Mail.ConsumerGroup,
			ConsumerName:  cfg.Mail.ConsumerName,
			Block:         2 * time.Second,
			MaxAttempts:   cfg.Mail.MaxAttempts,
		}, log)
		go func() {
			defer close(workerDone)
			if err := worker.Run(ctx); err != nil {
				log.Error("Receipt mail worker stopped", zap.Error(err))
			}
		}()
	} else {
		async = mail.NewAsyncDispatcher(sender, marker, log)
		dispatcher = async
		close(workerDone)
	}

	resolver := service.NewOrgResolver(db, orgsRepo, kv, cfg.OrgCache.TTL, log)
	donations := service.NewDonationService(db, orgsRepo, donorsRepo, donationsRepo, receiptsRepo,
		dispatcher, cfg.Donations, nil, log)
	receipts := service.NewReceiptService(db, receiptsRepo, donationsRepo, dispatcher, log)
	donors := service.NewDonorService(db, donorsRepo)
	orgs := service.NewOrgService(db, orgsRepo, runner, cfg.Donations.FallbackReceiptPrefix, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterDonationRoutes(
		httpapi.NewDonationsHandler(resolver, donations, log),
		httpapi.NewDonorsHandler(resolver, donors, log),
		httpapi.NewReceiptsHandler(resolver, receipts, log),
	)
	router.RegisterAdminRoutes(httpapi.NewOrgsHandler(orgs, log), httpapi.NewMigrationsHandler(runner, log))

	srv := httpapi.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	cancel()
	<-workerDone
	if async != nil {
		async.Wait()
	}
	_ = rediscommon.Close(redisClient)
}

func newSender(cfg *config.Config, log *zap.Logger) mail.Sender {
	if !cfg.Mail.Enabled {
		log.Info("Mail relay disabled, receipt emails are logged only")
		return mail.NewLogSender(log)
	}
	relay, err := mail.NewRelaySender(cfg.Mail.MailConfig, log)
	if err != nil {
		log.Warn("Mail relay misconfigured, receipt emails are logged only", zap.Error(err))
		return mail.NewLogSender(log)
	}
	return relay
}
