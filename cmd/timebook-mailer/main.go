package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"timebook/internal/amqp"
	"timebook/internal/config"
	applog "timebook/internal/log"
	"timebook/internal/mail"
	"timebook/internal/services"
	"timebook/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting timebook-mailer")

	// Load configuration
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// The mailer reads invoices straight from the database, so it needs
	// the sqlite backend regardless of what the server runs on.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	appLogger := applog.New(applog.DefaultConfig())

	var mailer mail.Mailer
	switch cfg.MailBackend {
	case "smtp":
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword)
		logger.Info("Initialized SMTP mailer", "addr", cfg.SMTPAddr)
	default:
		mailer = mail.NewLogMailer(appLogger)
		logger.Info("Initialized log mailer", "backend", cfg.MailBackend)
	}

	invoiceMailer := services.NewInvoiceMailer(repo, mailer, cfg.AdminEmail, cfg.MailFrom, appLogger)

	// Initialize AMQP client for consuming messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := amqpClient.ConsumeInvoiceEmails(ctx, func(msg *amqp.InvoiceEmailMessage) error {
			return invoiceMailer.HandleInvoiceEmail(ctx, msg.InvoiceID, msg.Test)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down mailer...")
	cancel()

	// Give the in-flight delivery a moment to finish
	time.Sleep(2 * time.Second)
	logger.Info("Mailer shutdown complete")
}
