// Package main is the entry point for the scribe bridge service.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oremus-labs/scribe-bridge/config"
	"github.com/oremus-labs/scribe-bridge/internal/api"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/flows"
	"github.com/oremus-labs/scribe-bridge/internal/handlers"
	"github.com/oremus-labs/scribe-bridge/internal/logutil"
	"github.com/oremus-labs/scribe-bridge/internal/redisx"
	"github.com/oremus-labs/scribe-bridge/internal/store"
	"github.com/oremus-labs/scribe-bridge/internal/tokencache"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
	"github.com/oremus-labs/scribe-bridge/internal/validator"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 5 * time.Second
)

func main() {
	log.SetFlags(0)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	cfg := config.Load()
	logutil.SetLevel(cfg.LogLevel)
	logutil.Info("starting scribe bridge", map[string]interface{}{
		"version":     version,
		"upstream":    cfg.BaseURL,
		"datastore":   cfg.DataStoreDriver,
		"credentials": cfg.CredentialStatus(),
	})

	dataStore, err := store.Open(cfg.DataStoreDSN, cfg.DataStoreDriver)
	if err != nil {
		logutil.Error("failed to open datastore", err, map[string]interface{}{"driver": cfg.DataStoreDriver})
		os.Exit(1)
	}
	defer dataStore.Close()
	if cfg.SeedDemoData {
		if sessionID, err := dataStore.SeedDemoData(); err != nil {
			logutil.Error("failed to seed demo data", err, nil)
		} else {
			logutil.Info("demo data ready", map[string]interface{}{"session_id": sessionID})
		}
	}

	redisClient, err := redisx.NewClient(redisx.Config{
		Addr:        cfg.RedisAddr,
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		TLSEnabled:  cfg.RedisTLSEnabled,
		TLSInsecure: cfg.RedisTLSInsecure,
	})
	if err != nil {
		// Redis is optional; run single-instance without it.
		logutil.Warn("redis unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := events.NewBus(events.Options{
		Client:  redisClient,
		Logger:  log.Default(),
		Channel: cfg.EventsChannel,
	})
	defer bus.Close()

	creds := upstream.Credentials{APIKey: cfg.APIKey, Email: cfg.Email, UserID: cfg.UserID}
	client := upstream.New(cfg.BaseURL, creds,
		upstream.WithTimeout(cfg.UpstreamTimeout),
		upstream.WithAskTimeout(cfg.AskAITimeout),
	)
	tokens := tokencache.New(tokencache.Options{
		Fetcher: client,
		Redis:   redisClient,
		Logger:  log.Default(),
		Skew:    cfg.TokenRefreshSkew,
	})

	schemaValidator, err := validator.New()
	if err != nil {
		logutil.Error("failed to compile request schemas", err, nil)
		os.Exit(1)
	}

	svc := flows.New(client, tokens, dataStore, bus, flows.Options{Credentials: creds})
	h := handlers.New(client, tokens, svc, dataStore, bus, schemaValidator, handlers.Options{
		Credentials:     creds,
		SampleAudioPath: cfg.SampleAudioPath,
	})

	startAutomation(rootCtx, automationOptions{
		Store:      dataStore,
		Tokens:     tokens,
		Interval:   cfg.MaintenanceInterval,
		HistoryTTL: cfg.HistoryTTL,
	})

	server := api.NewServer(h, api.Options{
		APIToken:         cfg.APIToken,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	srv := server.Start(":" + cfg.ServerPort)
	logutil.Info("server listening", map[string]interface{}{"addr": srv.Addr})

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	rootCancel()
	logutil.Info("shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		logutil.Error("server forced to shutdown", err, nil)
	}
	logutil.Info("server stopped", nil)
}
