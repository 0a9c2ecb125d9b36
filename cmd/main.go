package main

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/superdrive/vehicle-ledger/internal/auth"
	"github.com/superdrive/vehicle-ledger/internal/config"
	"github.com/superdrive/vehicle-ledger/internal/db"
	"github.com/superdrive/vehicle-ledger/internal/fleet"
	"github.com/superdrive/vehicle-ledger/internal/handlers"
	"github.com/superdrive/vehicle-ledger/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment")
	}

	cfg := config.Load()

	opts := fleet.Options{
		Weights: cfg.HealthWeights,
		Policy:  cfg.RiskPolicy,
	}

	// Archive mirror is optional; the in-memory core is authoritative
	if cfg.MongoURI != "" {
		client, err := db.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to disconnect from MongoDB")
			}
		}()
		opts.Archiver = db.NewArchive(client, cfg.MongoDB)
		log.WithField("database", cfg.MongoDB).Info("Archive mirror enabled")
	}

	service := fleet.NewService(opts)

	if cfg.MQTTBroker != "" {
		ingestor, err := telemetry.NewIngestor(cfg.MQTTBroker, cfg.MQTTClientID, service)
		if err != nil {
			log.WithError(err).Fatal("Failed to start odometer ingest")
		}
		defer ingestor.Close()
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	userStore := db.NewMemoryUserStore()

	router := handlers.NewRouter(service, authService, userStore)

	log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		log.WithError(err).Fatal("HTTP server stopped")
	}
}
