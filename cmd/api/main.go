package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventflow/eventflow-backend/internal/app"
	"github.com/eventflow/eventflow-backend/internal/clock"
	"github.com/eventflow/eventflow-backend/internal/config"
	"github.com/eventflow/eventflow-backend/internal/storage/postgres"
	transporthttp "github.com/eventflow/eventflow-backend/internal/transport/http"
	"github.com/eventflow/eventflow-backend/migrations"
)

func main() {
	logger := log.Default()
	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("parse database url: %v", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(startupCtx, poolCfg)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()

	ticketRepo := postgres.NewTicketRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	ticketSvc := app.NewTicketService(ticketRepo, clk)
	eventSvc := app.NewEventService(eventRepo, clk)
	paymentSvc := app.NewPaymentService(paymentRepo)
	accountSvc := app.NewAccountService(accountRepo)
	notificationSvc := app.NewNotificationService(notificationRepo)
	checkoutSvc := app.NewCheckoutService(
		ticketSvc,
		eventSvc,
		paymentSvc,
		accountSvc,
		notificationSvc,
		&app.LogEmailSender{Logger: logger},
		clk,
		logger,
	)

	handler := transporthttp.NewRouter(transporthttp.Services{
		Tickets:       ticketSvc,
		Events:        eventSvc,
		SavedEvents:   eventSvc,
		Payments:      paymentSvc,
		Accounts:      accountSvc,
		Notifications: notificationSvc,
		Checkout:      checkoutSvc,
	}, logger, cfg.CORSOrigins)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	log.Printf("api listening on %s", cfg.Addr())

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
