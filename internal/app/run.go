package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/db"
	"github.com/sidlin0932/dht-sensor-monitor/internal/httpapi"
	"github.com/sidlin0932/dht-sensor-monitor/internal/migrate"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard"
	dashboardviews "github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/views"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/offline"
	"github.com/sidlin0932/dht-sensor-monitor/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"apiBaseURL", cfg.APIBaseURL,
		"cacheVersion", cfg.CacheVersion,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"pushTopic", cfg.PushTopic,
	)

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn, logger); err != nil {
		return err
	}

	if err := dashboardviews.LoadTemplates(); err != nil {
		return err
	}

	mux := httpapi.NewMux(dbConn)

	offlineWorker, err := offline.RegisterFeature(mux, cfg, dbConn, logger)
	if err != nil {
		return err
	}
	// A failed install leaves the worker serving from the network; only a
	// broken cache store stops startup.
	if err := offlineWorker.Install(ctx); err != nil {
		logger.Warn("precache incomplete (continuing)", "error", err)
	}
	if _, err := offlineWorker.Activate(ctx); err != nil {
		return err
	}

	dashboardController := dashboard.RegisterFeature(mux, cfg, offlineWorker.Client(), logger)

	var mqttSubscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		// Set the handler before Connect: the broker may deliver queued
		// messages right after CONNACK.
		mqttSubscriber = mqtt.NewSubscriber(cfg, logger)
		offline.RegisterPushHandler(mqttSubscriber, offlineWorker, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	} else {
		logger.Info("mqtt disabled (MQTT_BROKER empty)")
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	var pollWG sync.WaitGroup
	pollWG.Add(1)
	go func() {
		defer pollWG.Done()
		dashboardController.Run(pollCtx)
	}()

	srv := httpapi.NewServer(cfg, logger, mux)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stopPolling()
		pollWG.Wait()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		logger.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	logger.Info("polling stopping")
	stopPolling()
	pollWG.Wait()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
