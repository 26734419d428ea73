package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/api"
	"github.com/smartinbox/smartinbox/internal/config"
	"github.com/smartinbox/smartinbox/internal/crypto"
	"github.com/smartinbox/smartinbox/internal/database"
	"github.com/smartinbox/smartinbox/internal/ingest"
	"github.com/smartinbox/smartinbox/internal/seed"
	"github.com/smartinbox/smartinbox/internal/store"
)

func main() {
	// CLI flags
	seedOwner := flag.String("seed", "", "Seed a sample mailbox for the given owner id and exit")
	importOwner := flag.String("import", "", "Import mail over IMAP for the given owner id and exit")
	flag.Parse()

	// A .env file is a development convenience, absence is fine
	_ = godotenv.Load()

	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set log level
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("Starting SmartInbox server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	enc, err := crypto.NewEncryptor(cfg.DBEncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryptor")
	}
	st := store.New(db, enc)

	// Handle seed-and-exit mode
	if *seedOwner != "" {
		log.Info().Str("owner", *seedOwner).Msg("Seeding sample mailbox...")
		if err := seed.Run(context.Background(), st, *seedOwner); err != nil {
			log.Fatal().Err(err).Msg("Seeding failed")
		}
		return
	}

	// Handle import-and-exit mode
	if *importOwner != "" {
		opts, err := imapOptionsFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("Missing IMAP configuration")
		}
		log.Info().Str("owner", *importOwner).Str("host", opts.Host).Msg("Importing mail...")
		importer := ingest.NewImporter(st)
		if err := importer.Run(context.Background(), *importOwner, opts); err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		return
	}

	// Initialize API server
	server := api.NewServer(cfg, db, st)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func imapOptionsFromEnv() (ingest.Options, error) {
	opts := ingest.Options{
		Host:     os.Getenv("IMAP_HOST"),
		Port:     993,
		Username: os.Getenv("IMAP_USERNAME"),
		Password: os.Getenv("IMAP_PASSWORD"),
		Mailbox:  os.Getenv("IMAP_MAILBOX"),
	}
	if raw := os.Getenv("IMAP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return opts, err
		}
		opts.Port = port
	}
	if opts.Host == "" || opts.Username == "" || opts.Password == "" {
		return opts, errors.New("IMAP_HOST, IMAP_USERNAME and IMAP_PASSWORD must be set")
	}
	return opts, nil
}
