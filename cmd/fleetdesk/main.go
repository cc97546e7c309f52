package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetdesk/internal/amqp"
	"fleetdesk/internal/cli"
	apphttp "fleetdesk/internal/http"
	"fleetdesk/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fleetdesk")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without it ledger writes stay local and the
	// worker's periodic sweep handles the spreadsheet mirror.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without sync messages", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - ledger sync relies on the worker sweep")
	}

	ledgerSvc := services.NewLedgerService(repo, amqpClient)
	earningsSvc := services.NewEarningsService(repo)
	ledgerSvc.OnWrite(earningsSvc.InvalidateCar)
	totalsSvc := services.NewTotalsService(repo, earningsSvc)

	srv := apphttp.NewServer(cfg.Port, apphttp.Deps{
		Repo:           repo,
		Ledger:         ledgerSvc,
		Earnings:       earningsSvc,
		Totals:         totalsSvc,
		MediaDir:       cfg.MediaDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSOrigin:     cfg.AllowedCORSOrigin,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
