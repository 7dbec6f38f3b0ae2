package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/unip1801/antaeus/pkg/api"
	"github.com/unip1801/antaeus/pkg/billing"
	"github.com/unip1801/antaeus/pkg/config"
	"github.com/unip1801/antaeus/pkg/currency"
	"github.com/unip1801/antaeus/pkg/observability"
	"github.com/unip1801/antaeus/pkg/payment"
	"github.com/unip1801/antaeus/pkg/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"store_type":  cfg.Store.Type,
		"trigger_day": cfg.Billing.TriggerDay,
	}).Info("starting antaeus")

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		logger.WithError(err).Error("failed to open store")
		os.Exit(1)
	}
	defer db.Close()

	sqlStore := store.NewSQLStore(db, cfg.Store.Type)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Billing.Seed {
		if err := sqlStore.Setup(ctx); err != nil {
			logger.WithError(err).Error("failed to set up schema")
			os.Exit(1)
		}
		if err := sqlStore.Seed(ctx, cfg.Billing.SeedCustomers, cfg.Billing.SeedInvoicesPerCus, rand.New(rand.NewSource(rand.Int63()))); err != nil {
			logger.WithError(err).Error("failed to seed store")
			os.Exit(1)
		}
		logger.WithFields(map[string]interface{}{
			"customers":             cfg.Billing.SeedCustomers,
			"invoices_per_customer": cfg.Billing.SeedInvoicesPerCus,
		}).Info("store seeded")
	}

	gateway := payment.NewExternalProvider(sqlStore, nil)
	engine := billing.NewEngine(
		sqlStore,
		sqlStore,
		gateway,
		currency.NewConverter(),
		billing.NewReporter(),
		logger,
		billing.WithRetryErrorInvoices(cfg.Billing.RetryErrorInvoices),
		billing.WithMetrics(metrics),
	)

	scheduler := billing.NewScheduler(engine, billing.SystemClock(), cfg.Billing.TriggerDay, logger, metrics)
	if cfg.Billing.SchedulerAutostart {
		scheduler.Start()
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(engine, scheduler, sqlStore, sqlStore, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.WithField("addr", server.Addr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
